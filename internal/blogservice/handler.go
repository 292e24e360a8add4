package blogservice

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/sushihentaime/inkpost/internal/common"
)

func NewBlogService(store Store, authors AuthorDirectory) *BlogService {
	return &BlogService{store: store, authors: authors}
}

// ListPublished returns one page of published blogs matching the title, tags and author filters.
func (s *BlogService) ListPublished(ctx context.Context, p ListParams) ([]*Blog, Metadata, error) {
	q, meta := newQuery(p)
	q.state = StatePublished

	if author := strings.TrimSpace(p.Author); author != "" {
		ids, err := s.authors.FindAuthorIDsByName(ctx, author)
		if err != nil {
			return nil, meta, err
		}
		if len(ids) == 0 {
			return []*Blog{}, meta, nil
		}
		q.authorIDs = ids
	}

	return s.list(ctx, q, meta)
}

// ListByAuthor returns one page of the author's own blogs, drafts included, optionally narrowed to one state.
func (s *BlogService) ListByAuthor(ctx context.Context, authorID string, p ListParams) ([]*Blog, Metadata, error) {
	v := common.NewValidator()
	validateListParams(v, &p)
	if !v.Valid() {
		return nil, Metadata{}, v.ValidationError()
	}

	q, meta := newQuery(p)
	q.state = State(p.State)
	q.authorIDs = []string{authorID}

	return s.list(ctx, q, meta)
}

func (s *BlogService) list(ctx context.Context, q query, meta Metadata) ([]*Blog, Metadata, error) {
	blogs, total, err := s.store.list(ctx, q)
	if err != nil {
		return nil, meta, err
	}
	meta.Total = total

	if err := s.attachAuthors(ctx, blogs...); err != nil {
		return nil, meta, err
	}

	return blogs, meta, nil
}

// GetPublished returns a published blog and counts the read.
func (s *BlogService) GetPublished(ctx context.Context, id string) (*Blog, error) {
	b, err := s.store.incrementReadCount(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.attachAuthors(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// Create stores a new draft owned by authorID.
func (s *BlogService) Create(ctx context.Context, authorID string, req CreateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateCreateBlogRequest(v, &req)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	exists, err := s.store.existsByTitle(ctx, req.Title)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateTitle
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	b := &Blog{
		Title:       req.Title,
		Description: req.Description,
		Body:        req.Body,
		AuthorID:    authorID,
		State:       StateDraft,
		ReadCount:   0,
		ReadingTime: readingTime(req.Body),
		Tags:        tags,
	}

	if err := s.store.insert(ctx, b); err != nil {
		return nil, err
	}

	if err := s.attachAuthors(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// Publish moves the author's blog to the published state. Publishing twice is allowed.
func (s *BlogService) Publish(ctx context.Context, authorID, id string) (*Blog, error) {
	if err := s.checkOwner(ctx, authorID, id); err != nil {
		return nil, err
	}

	b, err := s.store.publish(ctx, id, authorID)
	if err != nil {
		return nil, ownerError(err)
	}

	if err := s.attachAuthors(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// Update applies the fields present in req. The reading time follows the body.
func (s *BlogService) Update(ctx context.Context, authorID, id string, req UpdateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateUpdateBlogRequest(v, &req)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if err := s.checkOwner(ctx, authorID, id); err != nil {
		return nil, err
	}

	u := blogUpdate{
		Title:       req.Title,
		Description: req.Description,
		Body:        req.Body,
		Tags:        req.Tags,
	}
	if req.Body != nil {
		rt := readingTime(*req.Body)
		u.ReadingTime = &rt
	}

	b, err := s.store.update(ctx, id, authorID, u)
	if err != nil {
		return nil, ownerError(err)
	}

	if err := s.attachAuthors(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// Delete permanently removes the author's blog.
func (s *BlogService) Delete(ctx context.Context, authorID, id string) error {
	if err := s.checkOwner(ctx, authorID, id); err != nil {
		return err
	}

	return ownerError(s.store.delete(ctx, id, authorID))
}

// checkOwner reports ErrRecordNotFound for a missing blog before ErrNotAuthor for someone else's.
func (s *BlogService) checkOwner(ctx context.Context, authorID, id string) error {
	b, err := s.store.getByID(ctx, id)
	if err != nil {
		return err
	}

	if b.AuthorID != authorID {
		return ErrNotAuthor
	}

	return nil
}

// ownerError maps a miss of a conditional write, which can only follow a successful ownership check, to ErrNotAuthor.
func ownerError(err error) error {
	if errors.Is(err, ErrRecordNotFound) {
		return ErrNotAuthor
	}
	return err
}

func (s *BlogService) attachAuthors(ctx context.Context, blogs ...*Blog) error {
	if len(blogs) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(blogs))
	ids := make([]string, 0, len(blogs))
	for _, b := range blogs {
		if !seen[b.AuthorID] {
			seen[b.AuthorID] = true
			ids = append(ids, b.AuthorID)
		}
	}

	authors, err := s.authors.FindAuthors(ctx, ids)
	if err != nil {
		return err
	}

	for _, b := range blogs {
		b.Author = authors[b.AuthorID]
	}

	return nil
}

func positiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// splitTags turns a comma separated list into trimmed, non-empty terms.
func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// newQuery normalizes pagination, sorting and the title and tags filters.
func newQuery(p ListParams) (query, Metadata) {
	page := positiveInt(p.Page, DefaultPage)
	if page > math.MaxInt32 {
		page = math.MaxInt32
	}
	limit := positiveInt(p.Limit, DefaultLimit)
	if limit > MaxLimit {
		limit = MaxLimit
	}

	orderBy := strings.ToLower(strings.TrimSpace(p.OrderBy))
	if _, ok := sortColumns[orderBy]; !ok {
		orderBy = "created_at"
	}

	q := query{
		title:   strings.TrimSpace(p.Title),
		tags:    splitTags(p.Tags),
		orderBy: orderBy,
		desc:    !strings.EqualFold(strings.TrimSpace(p.Order), "asc"),
		offset:  (page - 1) * limit,
		limit:   limit,
	}

	return q, Metadata{Page: page, Limit: limit}
}
