package repository

import (
	"context"
	"time"

	"github.com/Agamvashisht/fintrack/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store by their identifier.
	Delete(ctx context.Context, id string) error
}

// RefreshTokenRepository defines the interface for refresh session persistence.
// Tokens are stored and looked up only by hash; the raw token never reaches
// the store.
type RefreshTokenRepository interface {
	// Create stores a new refresh token hash for the user.
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// GetByHash retrieves a refresh token record by its hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Revoke marks a single token revoked. It returns true when this call
	// performed the revocation, false when the token was already revoked or
	// does not exist.
	Revoke(ctx context.Context, tokenHash string) (bool, error)

	// RevokeAllByUserID revokes every active token for the user and returns
	// the number of tokens revoked.
	RevokeAllByUserID(ctx context.Context, userID string) (int64, error)

	// DeleteExpiredOrRevoked removes all rows that are past expiry or already
	// revoked, returning the number of rows deleted.
	DeleteExpiredOrRevoked(ctx context.Context) (int64, error)
}

// CategoryRepository defines the interface for category persistence operations.
type CategoryRepository interface {
	// SeedDefaults inserts the starter categories for a new user, skipping
	// any names the user already has.
	SeedDefaults(ctx context.Context, userID string) error

	// ListByUserID returns all categories for the given user ordered by name.
	ListByUserID(ctx context.Context, userID string) ([]domain.Category, error)
}
