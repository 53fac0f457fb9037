package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agamvashisht/fintrack/internal/domain"
	apperrors "github.com/Agamvashisht/fintrack/pkg/errors"
)

func TestUserStore_CreateAndLookup(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	u := &domain.User{ID: "u-1", Email: "alice@example.com", Name: "Alice", Role: domain.RoleUser}
	require.NoError(t, store.Create(ctx, u))

	byID, err := store.GetByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	byEmail, err := store.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", byEmail.ID)
}

func TestUserStore_DuplicateEmailConflict(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &domain.User{ID: "u-1", Email: "alice@example.com"}))

	err := store.Create(ctx, &domain.User{ID: "u-2", Email: "alice@example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestRefreshTokenStore_DuplicateHashConflict(t *testing.T) {
	store := NewRefreshTokenStore()
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	require.NoError(t, store.Create(ctx, "u-1", "hash-1", expiry))

	err := store.Create(ctx, "u-2", "hash-1", expiry)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestRefreshTokenStore_Revoke_SingleWinner(t *testing.T) {
	store := NewRefreshTokenStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "u-1", "hash-1", time.Now().Add(time.Hour)))

	const callers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := store.Revoke(ctx, "hash-1")
			assert.NoError(t, err)
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for won := range wins {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestRefreshTokenStore_Revoke_UnknownHash(t *testing.T) {
	store := NewRefreshTokenStore()

	won, err := store.Revoke(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, won)
}

func TestRefreshTokenStore_RevokeAllByUserID_OnlyActiveTokens(t *testing.T) {
	store := NewRefreshTokenStore()
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	require.NoError(t, store.Create(ctx, "u-1", "hash-1", expiry))
	require.NoError(t, store.Create(ctx, "u-1", "hash-2", expiry))
	require.NoError(t, store.Create(ctx, "u-2", "hash-3", expiry))

	won, err := store.Revoke(ctx, "hash-1")
	require.NoError(t, err)
	require.True(t, won)

	count, err := store.RevokeAllByUserID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// u-2's token is untouched.
	rt, err := store.GetByHash(ctx, "hash-3")
	require.NoError(t, err)
	assert.Nil(t, rt.RevokedAt)
}

func TestRefreshTokenStore_DeleteExpiredOrRevoked(t *testing.T) {
	store := NewRefreshTokenStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "u-1", "expired", time.Now().Add(-time.Minute)))
	require.NoError(t, store.Create(ctx, "u-1", "revoked", time.Now().Add(time.Hour)))
	require.NoError(t, store.Create(ctx, "u-1", "active", time.Now().Add(time.Hour)))

	won, err := store.Revoke(ctx, "revoked")
	require.NoError(t, err)
	require.True(t, won)

	count, err := store.DeleteExpiredOrRevoked(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 1, store.Len())

	_, err = store.GetByHash(ctx, "active")
	assert.NoError(t, err)
}

func TestRefreshTokenStore_DeleteExpiredOrRevoked_KeepsExpiryBoundary(t *testing.T) {
	store := NewRefreshTokenStore()
	ctx := context.Background()

	expiry := time.Now().UTC().Add(time.Hour)
	require.NoError(t, store.Create(ctx, "u-1", "at-boundary", expiry))
	require.NoError(t, store.Create(ctx, "u-1", "just-past", expiry.Add(-time.Nanosecond)))

	// Pin the sweep clock to the exact expiry instant: deletion requires
	// expires_at strictly before now, same as the SQL DELETE.
	store.nowFunc = func() time.Time { return expiry }

	count, err := store.DeleteExpiredOrRevoked(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = store.GetByHash(ctx, "at-boundary")
	assert.NoError(t, err)
	_, err = store.GetByHash(ctx, "just-past")
	assert.Error(t, err)
}
