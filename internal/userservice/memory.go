package userservice

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu      sync.RWMutex
	users   map[string]User
	byEmail map[string]string
}

// NewMemoryStore keeps users in process memory. Intended for development and tests.
func NewMemoryStore() Store {
	return &memoryStore{
		users:   make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (s *memoryStore) insert(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[u.Email]; ok {
		return ErrDuplicateEmail
	}

	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now

	stored := *u
	stored.Password = Password{hash: u.Password.hash}
	s.users[u.ID] = stored
	s.byEmail[u.Email] = u.ID

	return nil
}

func (s *memoryStore) getByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}

	u := s.users[id]
	return &u, nil
}

func (s *memoryStore) getByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &u, nil
}

func (s *memoryStore) getByIDs(_ context.Context, ids []string) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []*User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			u.Password = Password{}
			users = append(users, &u)
		}
	}

	return users, nil
}

func (s *memoryStore) findIDsByName(_ context.Context, name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(name)

	ids := []string{}
	for id, u := range s.users {
		if strings.Contains(strings.ToLower(u.FirstName), needle) || strings.Contains(strings.ToLower(u.LastName), needle) {
			ids = append(ids, id)
		}
	}

	return ids, nil
}
