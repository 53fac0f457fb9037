// Package memory provides in-memory repository implementations backed by
// maps and a mutex. They mirror the PostgreSQL semantics, including the
// compare-and-set revoke, and are used in tests and local development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Agamvashisht/fintrack/internal/domain"
	apperrors "github.com/Agamvashisht/fintrack/pkg/errors"
)

// UserStore is an in-memory repository.UserRepository.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

// NewUserStore creates an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

// Create inserts a new user, rejecting duplicate emails.
func (s *UserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return apperrors.Conflict("email already registered")
	}

	u := *user
	s.byID[u.ID] = &u
	s.byEmail[u.Email] = &u
	return nil
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := *u
	return &out, nil
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byEmail[email]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := *u
	return &out, nil
}

// Update modifies an existing user.
func (s *UserStore) Update(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[user.ID]
	if !ok {
		return apperrors.NotFound("user", user.ID)
	}

	if user.Email != existing.Email {
		if _, taken := s.byEmail[user.Email]; taken {
			return apperrors.Conflict("email already registered")
		}
		delete(s.byEmail, existing.Email)
	}

	u := *user
	u.UpdatedAt = time.Now().UTC()
	s.byID[u.ID] = &u
	s.byEmail[u.Email] = &u
	return nil
}

// Delete removes a user by ID.
func (s *UserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return apperrors.NotFound("user", id)
	}
	delete(s.byID, id)
	delete(s.byEmail, u.Email)
	return nil
}

// RefreshTokenStore is an in-memory repository.RefreshTokenRepository.
type RefreshTokenStore struct {
	mu      sync.Mutex
	byHash  map[string]*domain.RefreshToken
	nowFunc func() time.Time // injectable clock for testing
}

// NewRefreshTokenStore creates an empty in-memory refresh token store.
func NewRefreshTokenStore() *RefreshTokenStore {
	return &RefreshTokenStore{
		byHash:  make(map[string]*domain.RefreshToken),
		nowFunc: time.Now,
	}
}

// Create stores a new token hash, rejecting duplicates.
func (s *RefreshTokenStore) Create(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHash[tokenHash]; exists {
		return apperrors.Conflict("refresh token already stored")
	}

	s.byHash[tokenHash] = &domain.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByHash retrieves a token record by hash.
func (s *RefreshTokenStore) GetByHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.byHash[tokenHash]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := *rt
	return &out, nil
}

// Revoke marks a single token revoked. Exactly one concurrent caller for a
// given hash observes true.
func (s *RefreshTokenStore) Revoke(_ context.Context, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.byHash[tokenHash]
	if !ok || rt.RevokedAt != nil {
		return false, nil
	}

	now := time.Now().UTC()
	rt.RevokedAt = &now
	return true, nil
}

// RevokeAllByUserID revokes every active token for the user.
func (s *RefreshTokenStore) RevokeAllByUserID(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var count int64
	for _, rt := range s.byHash {
		if rt.UserID == userID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
			count++
		}
	}
	return count, nil
}

// DeleteExpiredOrRevoked removes rows past expiry or already revoked.
func (s *RefreshTokenStore) DeleteExpiredOrRevoked(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc().UTC()
	var count int64
	for hash, rt := range s.byHash {
		// Strict inequality, matching the SQL sweep (expires_at < now).
		if rt.RevokedAt != nil || rt.ExpiresAt.Before(now) {
			delete(s.byHash, hash)
			count++
		}
	}
	return count, nil
}

// Len returns the number of stored tokens (used in tests).
func (s *RefreshTokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byHash)
}
