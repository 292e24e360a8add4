package userservice

import (
	"log/slog"
	"time"

	"github.com/sushihentaime/inkpost/internal/common"
)

const (
	DefaultTokenTTL time.Duration = time.Hour

	userCacheTTL time.Duration = 5 * time.Minute
)

var (
	AnonymousUser = &User{}
)

type UserService struct {
	store   Store
	tokens  *TokenManager
	revoked Denylist
	c       *common.Cache
	mb      common.MessageProducer
	logger  *slog.Logger
}

type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Password  Password  `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte
}

// RegisterRequest is the payload accepted by Register.
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest is the payload accepted by Login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
