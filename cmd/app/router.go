package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func (app *application) routes() http.Handler {
	router := chi.NewRouter()

	router.Use(app.recoverPanic)
	router.Use(chimw.RealIP)
	router.Use(app.logRequest)
	router.Use(app.enableCORS())
	router.Use(app.rateLimit)
	router.Use(app.authenticate)

	router.NotFound(app.notFoundErrorResponse)
	router.MethodNotAllowed(app.notFoundErrorResponse)

	router.Get("/healthcheck", app.healthCheckHandler)

	// user service
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", app.registerUserHandler)
		r.Post("/login", app.loginUserHandler)
		r.With(app.requireAuthUser).Post("/logout", app.logoutUserHandler)
	})

	// blog service
	router.Route("/blogs", func(r chi.Router) {
		r.Get("/", app.listPublishedBlogsHandler)
		r.Get("/{id}", app.getBlogHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.requireAuthUser)

			r.Get("/users/me", app.listMyBlogsHandler)
			r.Post("/", app.createBlogHandler)
			r.Patch("/{id}", app.updateBlogHandler)
			r.Patch("/{id}/publish", app.publishBlogHandler)
			r.Delete("/{id}", app.deleteBlogHandler)
		})
	})

	return router
}
