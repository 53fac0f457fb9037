package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("s3cret-password")
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	assert.True(t, hasher.Verify(digest, "s3cret-password"))
	assert.False(t, hasher.Verify(digest, "wrong-password"))
}

func TestHasher_HashesAreSalted(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHasher_MalformedDigestIsMismatch(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	assert.False(t, hasher.Verify("not-a-bcrypt-digest", "anything"))
	assert.False(t, hasher.Verify("", "anything"))
}

func TestHasher_InvalidCostFallsBack(t *testing.T) {
	hasher := NewHasher(99)
	assert.Equal(t, DefaultBcryptCost, hasher.cost)

	hasher = NewHasher(0)
	assert.Equal(t, DefaultBcryptCost, hasher.cost)
}

func TestHasher_VerifyDummyAlwaysFalse(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	assert.False(t, hasher.VerifyDummy("anything"))
	assert.False(t, hasher.VerifyDummy("fintrack-dummy-password"))
}
