// Package store provides storage backends for the Baseer gateway.
//
// This file implements an in-memory store used in tests and local runs.
package store

import (
	"context"
	"sync"

	"github.com/baseer-ai/baseer/internal/models"
)

// InMemoryStore is a mutex-guarded store with the same uniqueness semantics
// as the SQL backends: CreateUser checks and inserts under one lock, so
// concurrent duplicate registrations cannot both succeed.
type InMemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	users    []models.User
	contacts []models.Contact
	history  []models.HistoryRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) CreateUser(ctx context.Context, u models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Phone == u.Phone {
			return 0, models.ErrDuplicateUser
		}
	}
	u.ID = s.nextID
	s.nextID++
	s.users = append(s.users, u)
	return u.ID, nil
}

func (s *InMemoryStore) AuthenticateUser(ctx context.Context, username, password string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username && u.Password == password {
			return u.ID, nil
		}
	}
	return 0, models.ErrInvalidCredentials
}

func (s *InMemoryStore) GetUser(ctx context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, models.ErrUserNotFound
}

// SetContacts replaces the contact directory (test setup helper).
func (s *InMemoryStore) SetContacts(contacts []models.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = append([]models.Contact(nil), contacts...)
}

func (s *InMemoryStore) ListContacts(ctx context.Context) ([]models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Contact(nil), s.contacts...), nil
}

func (s *InMemoryStore) AddHistory(ctx context.Context, rec models.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, rec)
	return nil
}

// History returns a snapshot of the appended records (test inspection helper).
func (s *InMemoryStore) History() []models.HistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.HistoryRecord(nil), s.history...)
}

func (s *InMemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
