package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateTitle = errors.New("duplicate title")
	ErrNotAuthor      = errors.New("blog belongs to another author")
)

// Store persists blogs. The conditional methods (incrementReadCount, publish, update, delete)
// match and modify in one atomic operation and return ErrRecordNotFound when nothing matched.
type Store interface {
	insert(ctx context.Context, b *Blog) error
	getByID(ctx context.Context, id string) (*Blog, error)
	existsByTitle(ctx context.Context, title string) (bool, error)
	incrementReadCount(ctx context.Context, id string) (*Blog, error)
	publish(ctx context.Context, id, authorID string) (*Blog, error)
	update(ctx context.Context, id, authorID string, u blogUpdate) (*Blog, error)
	delete(ctx context.Context, id, authorID string) error
	list(ctx context.Context, q query) ([]*Blog, int, error)
}

// sortColumns maps accepted order_by values to columns.
var sortColumns = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"read_count":   "read_count",
	"reading_time": "reading_time",
}

type postgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func uniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == constraint
	}
	return false
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

const blogColumns = `id, title, description, body, author_id, state, read_count, reading_time, tags, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBlog(row scanner) (*Blog, error) {
	var b Blog
	err := row.Scan(&b.ID, &b.Title, &b.Description, &b.Body, &b.AuthorID, &b.State, &b.ReadCount, &b.ReadingTime, pq.Array(&b.Tags), &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return &b, nil
}

func (m *postgresStore) queryOne(ctx context.Context, query string, args ...any) (*Blog, error) {
	b, err := scanBlog(m.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		case uniqueViolation(err, "blogs_title_key"):
			return nil, ErrDuplicateTitle
		default:
			return nil, err
		}
	}
	return b, nil
}

func (m *postgresStore) insert(ctx context.Context, b *Blog) error {
	query := `
		INSERT INTO blogs (id, title, description, body, author_id, state, read_count, reading_time, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	id := uuid.NewString()

	args := []any{id, b.Title, b.Description, b.Body, b.AuthorID, b.State, b.ReadCount, b.ReadingTime, pq.Array(b.Tags)}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		switch {
		case uniqueViolation(err, "blogs_title_key"):
			return ErrDuplicateTitle
		default:
			return err
		}
	}

	b.ID = id
	return nil
}

func (m *postgresStore) getByID(ctx context.Context, id string) (*Blog, error) {
	if !isUUID(id) {
		return nil, ErrRecordNotFound
	}

	query := `SELECT ` + blogColumns + ` FROM blogs WHERE id = $1`

	return m.queryOne(ctx, query, id)
}

func (m *postgresStore) existsByTitle(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM blogs WHERE title = $1)`, title).Scan(&exists)
	return exists, err
}

func (m *postgresStore) incrementReadCount(ctx context.Context, id string) (*Blog, error) {
	if !isUUID(id) {
		return nil, ErrRecordNotFound
	}

	query := `
		UPDATE blogs
		SET read_count = read_count + 1
		WHERE id = $1 AND state = 'published'
		RETURNING ` + blogColumns

	return m.queryOne(ctx, query, id)
}

func (m *postgresStore) publish(ctx context.Context, id, authorID string) (*Blog, error) {
	if !isUUID(id) || !isUUID(authorID) {
		return nil, ErrRecordNotFound
	}

	query := `
		UPDATE blogs
		SET state = 'published', updated_at = clock_timestamp()
		WHERE id = $1 AND author_id = $2
		RETURNING ` + blogColumns

	return m.queryOne(ctx, query, id, authorID)
}

func (m *postgresStore) update(ctx context.Context, id, authorID string, u blogUpdate) (*Blog, error) {
	if !isUUID(id) || !isUUID(authorID) {
		return nil, ErrRecordNotFound
	}

	query := `
		UPDATE blogs
		SET title = COALESCE($3, title),
			description = COALESCE($4, description),
			body = COALESCE($5, body),
			tags = COALESCE($6::text[], tags),
			reading_time = COALESCE($7::integer, reading_time),
			updated_at = clock_timestamp()
		WHERE id = $1 AND author_id = $2
		RETURNING ` + blogColumns

	var tags any
	if u.Tags != nil {
		tags = pq.Array(*u.Tags)
	}

	return m.queryOne(ctx, query, id, authorID, u.Title, u.Description, u.Body, tags, u.ReadingTime)
}

func (m *postgresStore) delete(ctx context.Context, id, authorID string) error {
	if !isUUID(id) || !isUUID(authorID) {
		return ErrRecordNotFound
	}

	res, err := m.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// where renders the filter part of q as a WHERE clause with positional arguments.
func (q query) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)

	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if q.state != "" {
		add("state = $%d", string(q.state))
	}
	if q.authorIDs != nil {
		add("author_id = ANY($%d::uuid[])", pq.Array(q.authorIDs))
	}
	if q.title != "" {
		add("title ILIKE $%d", likePattern(q.title))
	}
	if len(q.tags) > 0 {
		patterns := make([]string, len(q.tags))
		for i, tag := range q.tags {
			patterns[i] = likePattern(tag)
		}
		add("EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE t ILIKE ANY($%d))", pq.Array(patterns))
	}

	if len(clauses) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (m *postgresStore) list(ctx context.Context, q query) ([]*Blog, int, error) {
	where, args := q.where()

	var total int
	err := m.db.QueryRowContext(ctx, `SELECT count(*) FROM blogs `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	direction := "ASC"
	if q.desc {
		direction = "DESC"
	}

	column, ok := sortColumns[q.orderBy]
	if !ok {
		column = "created_at"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM blogs
		%s
		ORDER BY %s %s, id %s
		LIMIT $%d OFFSET $%d`, blogColumns, where, column, direction, direction, len(args)+1, len(args)+2)

	rows, err := m.db.QueryContext(ctx, query, append(args, q.limit, q.offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	blogs := []*Blog{}
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, 0, err
		}
		blogs = append(blogs, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return blogs, total, nil
}
