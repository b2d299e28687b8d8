package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	usermodel "github.com/stockcast/stockcast/internal/models/user"
	"github.com/stockcast/stockcast/internal/validation"
)

// MemoryStore is an in-process UserStore used in tests and when no
// database is configured. Same semantics as PostgresStore, including
// email uniqueness.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*usermodel.User
	byEmail map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*usermodel.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, req *usermodel.CreateUserRequest, passwordHash string) (*usermodel.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := validation.NormalizeEmail(req.Email)
	if _, exists := s.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}

	user := &usermodel.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}

	s.byID[user.ID] = user
	s.byEmail[email] = user.ID

	return user.Public(), nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[validation.NormalizeEmail(email)]
	if !exists {
		return nil, nil
	}

	user := *s.byID[id]
	return &user, nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, userID string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.byID[userID]
	if !exists {
		return nil, nil
	}

	return user.Public(), nil
}
