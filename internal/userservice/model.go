package userservice

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrNotFound       = errors.New("user not found")
)

// Store persists users. Implementations exist for PostgreSQL, MongoDB and process memory.
type Store interface {
	insert(ctx context.Context, u *User) error
	getByEmail(ctx context.Context, email string) (*User, error)
	getByID(ctx context.Context, id string) (*User, error)
	getByIDs(ctx context.Context, ids []string) ([]*User, error)
	findIDsByName(ctx context.Context, name string) ([]string, error)
}

type postgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

// uniqueViolation reports whether err is a unique constraint violation on constraint.
func uniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == constraint
	}
	return false
}

// likePattern escapes s for use inside an ILIKE substring match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func (m *postgresStore) insert(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, email, password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	id := uuid.NewString()

	args := []any{
		id,
		u.FirstName,
		u.LastName,
		u.Email,
		u.Password.hash,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case uniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		default:
			return err
		}
	}

	u.ID = id
	return nil
}

func (m *postgresStore) getByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, first_name, last_name, email, password, created_at, updated_at
		FROM users
		WHERE email = $1`

	return m.scanOne(m.db.QueryRowContext(ctx, query, email))
}

func (m *postgresStore) getByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := `
		SELECT id, first_name, last_name, email, password, created_at, updated_at
		FROM users
		WHERE id = $1`

	return m.scanOne(m.db.QueryRowContext(ctx, query, id))
}

func (m *postgresStore) scanOne(row *sql.Row) (*User, error) {
	var u User

	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password.hash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *postgresStore) getByIDs(ctx context.Context, ids []string) ([]*User, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []*User{}, nil
	}

	query := `
		SELECT id, first_name, last_name, email, created_at, updated_at
		FROM users
		WHERE id = ANY($1::uuid[])`

	rows, err := m.db.QueryContext(ctx, query, pq.Array(valid))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (m *postgresStore) findIDsByName(ctx context.Context, name string) ([]string, error) {
	query := `
		SELECT id
		FROM users
		WHERE first_name ILIKE $1 OR last_name ILIKE $1`

	rows, err := m.db.QueryContext(ctx, query, likePattern(name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}
