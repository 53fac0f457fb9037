package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the cost used for all production password hashes.
const DefaultBcryptCost = 12

// dummyDigest is a valid bcrypt digest of a throwaway value. Login verifies
// against it when the email is unknown so both failure paths cost a bcrypt
// comparison.
var dummyDigest = func() string {
	d, err := bcrypt.GenerateFromPassword([]byte("fintrack-dummy-password"), DefaultBcryptCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy bcrypt digest: %v", err))
	}
	return string(d)
}()

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher creates a password hasher with the given bcrypt cost. Costs
// outside bcrypt's valid range fall back to DefaultBcryptCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt digest of the given password.
func (h *Hasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether the password matches the stored digest. A malformed
// digest counts as a mismatch, not an error.
func (h *Hasher) Verify(digest, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// VerifyDummy burns a bcrypt comparison against a fixed digest. It always
// returns false.
func (h *Hasher) VerifyDummy(password string) bool {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyDigest), []byte(password))
	return false
}
