package userservice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sushihentaime/inkpost/internal/common"
)

var (
	ErrInvalidCredentials = errors.New("username or password is incorrect")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// NewUserService wires the user store with token handling. mb may be nil, in which case no user.created events are published.
func NewUserService(store Store, tokens *TokenManager, revoked Denylist, c *common.Cache, mb common.MessageProducer, logger *slog.Logger) *UserService {
	return &UserService{
		store:   store,
		tokens:  tokens,
		revoked: revoked,
		c:       c,
		mb:      mb,
		logger:  logger,
	}
}

// Register creates a new user account and publishes a user.created event.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	v := common.NewValidator()
	validateRegisterRequest(v, &req)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := &User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}

	if err := u.Password.set(req.Password); err != nil {
		return nil, err
	}

	if err := s.store.insert(ctx, u); err != nil {
		return nil, err
	}

	s.publishUserCreated(ctx, u)

	u.Password = Password{}
	return u, nil
}

// publishUserCreated is best effort: the account already exists, so a broker failure is only logged.
func (s *UserService) publishUserCreated(ctx context.Context, u *User) {
	if s.mb == nil {
		return
	}

	msg, err := common.UserCreatedEvent{Email: u.Email, FirstName: u.FirstName}.Marshal()
	if err == nil {
		err = s.mb.Publish(ctx, msg, common.UserCreatedKey, common.UserExchange)
	}
	if err != nil {
		s.logger.Error("could not publish user created event", slog.String("user_id", u.ID), slog.String("error", err.Error()))
	}
}

// Login checks the credentials and returns a signed access token.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (string, error) {
	v := common.NewValidator()
	validateLoginRequest(v, &req)
	if !v.Valid() {
		return "", v.ValidationError()
	}

	user, err := s.store.getByEmail(ctx, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			_, _ = dummyPassword().compare(req.Password)
			return "", ErrInvalidCredentials
		default:
			return "", err
		}
	}

	ok, err := user.Password.compare(req.Password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	return s.tokens.issue(user.ID)
}

// Authenticate resolves the user a valid, unrevoked token was issued to.
func (s *UserService) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	key := common.CacheKeyUser(claims.Subject)
	if cached, ok := s.c.Get(key); ok {
		if u, ok := cached.(*User); ok {
			return u, nil
		}
	}

	u, err := s.store.getByID(ctx, claims.Subject)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrInvalidToken
		default:
			return nil, err
		}
	}

	u.Password = Password{}
	s.c.Set(key, u, userCacheTTL)

	return u, nil
}

// Logout revokes token until it expires.
func (s *UserService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.parse(token)
	if err != nil {
		return err
	}

	if err := s.revoked.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return err
	}

	s.c.Delete(common.CacheKeyUser(claims.Subject))

	return nil
}

// FindAuthors returns the users with the given ids keyed by id. Unknown ids are absent from the map.
func (s *UserService) FindAuthors(ctx context.Context, ids []string) (map[string]*User, error) {
	users, err := s.store.getByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	authors := make(map[string]*User, len(users))
	for _, u := range users {
		authors[u.ID] = u
	}

	return authors, nil
}

// FindAuthorIDsByName returns the ids of users whose first or last name contains name, ignoring case.
func (s *UserService) FindAuthorIDsByName(ctx context.Context, name string) ([]string, error) {
	return s.store.findIDsByName(ctx, name)
}

func (u *User) IsAnonymous() bool {
	return u == AnonymousUser
}
