package blogservice

import (
	"context"
	"time"

	"github.com/sushihentaime/inkpost/internal/userservice"
)

type State string

const (
	StateDraft     State = "draft"
	StatePublished State = "published"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	wordsPerMinute = 35
)

type Blog struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	// Body is stored as Markdown.
	Body        string            `json:"body"`
	AuthorID    string            `json:"-"`
	Author      *userservice.User `json:"author"`
	State       State             `json:"state"`
	ReadCount   int               `json:"read_count"`
	ReadingTime int               `json:"reading_time"`
	Tags        []string          `json:"tags"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type Metadata struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// AuthorDirectory resolves blog authors. *userservice.UserService satisfies it.
type AuthorDirectory interface {
	FindAuthors(ctx context.Context, ids []string) (map[string]*userservice.User, error)
	FindAuthorIDsByName(ctx context.Context, name string) ([]string, error)
}

type BlogService struct {
	store   Store
	authors AuthorDirectory
}

type CreateBlogRequest struct {
	Title       string   `json:"title" validate:"required,min=4,max=200"`
	Description string   `json:"description" validate:"omitempty,min=4"`
	Body        string   `json:"body" validate:"required,min=10"`
	Tags        []string `json:"tags" validate:"omitempty,dive,required"`
}

// UpdateBlogRequest carries a partial update. Nil fields are left unchanged.
type UpdateBlogRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=4,max=200"`
	Description *string   `json:"description" validate:"omitempty,min=4"`
	Body        *string   `json:"body" validate:"omitempty,min=10"`
	Tags        *[]string `json:"tags" validate:"omitempty,dive,required"`
}

// ListParams holds the raw list query values. Invalid page and limit values fall back to defaults.
type ListParams struct {
	Page    string
	Limit   string
	Title   string
	Tags    string
	Author  string
	State   string `json:"state" validate:"omitempty,oneof=draft published"`
	OrderBy string
	Order   string
}

// blogUpdate is the set of columns an update writes.
type blogUpdate struct {
	Title       *string
	Description *string
	Body        *string
	Tags        *[]string
	ReadingTime *int
}

// query is a normalized list request as seen by a Store.
type query struct {
	title     string
	tags      []string
	authorIDs []string
	state     State
	orderBy   string
	desc      bool
	offset    int
	limit     int
}
