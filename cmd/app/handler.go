package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/inkpost/internal/blogservice"
	"github.com/sushihentaime/inkpost/internal/common"
	"github.com/sushihentaime/inkpost/internal/userservice"
)

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input userservice.RegisterRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user, err := app.userService.Register(r.Context(), input)
	if err != nil {
		var validationErr common.ValidationError
		switch {
		case errors.As(err, &validationErr):
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		case errors.Is(err, userservice.ErrDuplicateEmail):
			app.conflictErrorResponse(w, r, "User with this email already exists")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "User created successfully", "data": envelope{"user": user}}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input userservice.LoginRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	token, err := app.userService.Login(r.Context(), input)
	if err != nil {
		var validationErr common.ValidationError
		switch {
		case errors.As(err, &validationErr):
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		case errors.Is(err, userservice.ErrInvalidCredentials):
			app.invalidCredentialsErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "Login successful", "data": envelope{"accessToken": token}}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		app.unAuthorizedErrorResponse(w, r)
		return
	}

	err := app.userService.Logout(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrInvalidToken):
			app.unAuthorizedErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "Logout successful"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// blogErrorResponse maps blog service errors. conflict is the message used for a duplicate title.
func (app *application) blogErrorResponse(w http.ResponseWriter, r *http.Request, err error, conflict string) {
	var validationErr common.ValidationError
	switch {
	case errors.As(err, &validationErr):
		app.failedValidationErrorResponse(w, r, validationErr.Errors)
	case errors.Is(err, blogservice.ErrRecordNotFound):
		app.blogNotFoundErrorResponse(w, r)
	case errors.Is(err, blogservice.ErrNotAuthor):
		app.unAuthorizedErrorResponse(w, r)
	case errors.Is(err, blogservice.ErrDuplicateTitle):
		app.conflictErrorResponse(w, r, conflict)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listPublishedBlogsHandler(w http.ResponseWriter, r *http.Request) {
	blogs, meta, err := app.blogService.ListPublished(r.Context(), app.readListParams(r))
	if err != nil {
		app.blogErrorResponse(w, r, err, "")
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "Get all blogs", "data": blogs, "meta": meta}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listMyBlogsHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	blogs, meta, err := app.blogService.ListByAuthor(r.Context(), user.ID, app.readListParams(r))
	if err != nil {
		app.blogErrorResponse(w, r, err, "")
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "Get all authors blogs", "data": blogs, "meta": meta}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getBlogHandler(w http.ResponseWriter, r *http.Request) {
	blog, err := app.blogService.GetPublished(r.Context(), app.readIDParam(r))
	if err != nil {
		app.blogErrorResponse(w, r, err, "")
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "Successfully retrieved Blog", "data": envelope{"blog": blog}}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createBlogHandler(w http.ResponseWriter, r *http.Request) {
	var input blogservice.CreateBlogRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	blog, err := app.blogService.Create(r.Context(), user.ID, input)
	if err != nil {
		app.blogErrorResponse(w, r, err, "Blog already with the title exists")
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"message": "Blog created successfully", "data": envelope{"blog": blog}}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) publishBlogHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	blog, err := app.blogService.Publish(r.Context(), user.ID, app.readIDParam(r))
	if err != nil {
		app.blogErrorResponse(w, r, err, "")
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "Successfully published Blog", "data": envelope{"blog": blog}}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateBlogHandler(w http.ResponseWriter, r *http.Request) {
	var input blogservice.UpdateBlogRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	blog, err := app.blogService.Update(r.Context(), user.ID, app.readIDParam(r), input)
	if err != nil {
		app.blogErrorResponse(w, r, err, "Blog with same title already exists")
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "Successfully updated Blog", "data": envelope{"blog": blog}}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteBlogHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	err := app.blogService.Delete(r.Context(), user.ID, app.readIDParam(r))
	if err != nil {
		app.blogErrorResponse(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
