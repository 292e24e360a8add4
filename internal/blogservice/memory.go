package blogservice

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu    sync.Mutex
	blogs map[string]*Blog
}

// NewMemoryStore keeps blogs in process memory. Intended for development and tests.
func NewMemoryStore() Store {
	return &memoryStore{blogs: make(map[string]*Blog)}
}

func clone(b *Blog) *Blog {
	c := *b
	c.Tags = append([]string{}, b.Tags...)
	return &c
}

func (s *memoryStore) titleTaken(title, exceptID string) bool {
	for id, b := range s.blogs {
		if b.Title == title && id != exceptID {
			return true
		}
	}
	return false
}

func (s *memoryStore) insert(_ context.Context, b *Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.titleTaken(b.Title, "") {
		return ErrDuplicateTitle
	}

	ts := time.Now().UTC()
	b.ID = uuid.NewString()
	b.CreatedAt = ts
	b.UpdatedAt = ts

	s.blogs[b.ID] = clone(b)
	return nil
}

func (s *memoryStore) getByID(_ context.Context, id string) (*Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blogs[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return clone(b), nil
}

func (s *memoryStore) existsByTitle(_ context.Context, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.titleTaken(title, ""), nil
}

func (s *memoryStore) incrementReadCount(_ context.Context, id string) (*Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blogs[id]
	if !ok || b.State != StatePublished {
		return nil, ErrRecordNotFound
	}

	b.ReadCount++
	return clone(b), nil
}

// owned returns the stored blog if it exists and belongs to authorID. Callers hold mu.
func (s *memoryStore) owned(id, authorID string) (*Blog, bool) {
	b, ok := s.blogs[id]
	if !ok || b.AuthorID != authorID {
		return nil, false
	}
	return b, true
}

func (s *memoryStore) publish(_ context.Context, id, authorID string) (*Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.owned(id, authorID)
	if !ok {
		return nil, ErrRecordNotFound
	}

	b.State = StatePublished
	b.UpdatedAt = time.Now().UTC()
	return clone(b), nil
}

func (s *memoryStore) update(_ context.Context, id, authorID string, u blogUpdate) (*Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.owned(id, authorID)
	if !ok {
		return nil, ErrRecordNotFound
	}

	if u.Title != nil && s.titleTaken(*u.Title, id) {
		return nil, ErrDuplicateTitle
	}

	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Description != nil {
		b.Description = *u.Description
	}
	if u.Body != nil {
		b.Body = *u.Body
	}
	if u.Tags != nil {
		b.Tags = append([]string{}, *u.Tags...)
	}
	if u.ReadingTime != nil {
		b.ReadingTime = *u.ReadingTime
	}
	b.UpdatedAt = time.Now().UTC()

	return clone(b), nil
}

func (s *memoryStore) delete(_ context.Context, id, authorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owned(id, authorID); !ok {
		return ErrRecordNotFound
	}

	delete(s.blogs, id)
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (q query) matches(b *Blog) bool {
	if q.state != "" && b.State != q.state {
		return false
	}

	if q.authorIDs != nil {
		found := false
		for _, id := range q.authorIDs {
			if id == b.AuthorID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if q.title != "" && !containsFold(b.Title, q.title) {
		return false
	}

	if len(q.tags) > 0 {
		for _, want := range q.tags {
			for _, tag := range b.Tags {
				if containsFold(tag, want) {
					return true
				}
			}
		}
		return false
	}

	return true
}

// less orders a before b by the requested column, breaking ties by id.
func (q query) less(a, b *Blog) bool {
	var cmp int

	switch q.orderBy {
	case "updated_at":
		cmp = a.UpdatedAt.Compare(b.UpdatedAt)
	case "read_count":
		cmp = a.ReadCount - b.ReadCount
	case "reading_time":
		cmp = a.ReadingTime - b.ReadingTime
	default:
		cmp = a.CreatedAt.Compare(b.CreatedAt)
	}

	if cmp == 0 {
		cmp = strings.Compare(a.ID, b.ID)
	}

	if q.desc {
		return cmp > 0
	}
	return cmp < 0
}

func (s *memoryStore) list(_ context.Context, q query) ([]*Blog, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []*Blog{}
	for _, b := range s.blogs {
		if q.matches(b) {
			matched = append(matched, b)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return q.less(matched[i], matched[j])
	})

	total := len(matched)

	blogs := []*Blog{}
	for i := q.offset; i < total && len(blogs) < q.limit; i++ {
		blogs = append(blogs, clone(matched[i]))
	}

	return blogs, total, nil
}
