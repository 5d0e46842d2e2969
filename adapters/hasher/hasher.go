// Package hasher hashes and verifies the admin API token.
package hasher

import (
	"fmt"
	"strings"

	"github.com/artpar/cmscore/ports"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt uses bcrypt for hashing.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher with the given cost.
// Out-of-range costs fall back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash generates a bcrypt hash from plaintext.
func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
}

// Compare checks if plaintext matches hash.
func (h *Bcrypt) Compare(hash []byte, plaintext string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plaintext)) == nil
}

// Ensure interface compliance.
var _ ports.Hasher = (*Bcrypt)(nil)

// TokenHash resolves the configured admin token into a hash. Values that
// already look like a bcrypt hash ($2a$, $2b$, $2y$) are used as-is;
// anything else is treated as plaintext and hashed once at startup.
func TokenHash(h ports.Hasher, configured string) ([]byte, error) {
	if configured == "" {
		return nil, nil
	}
	if IsBcrypt(configured) {
		if _, err := bcrypt.Cost([]byte(configured)); err != nil {
			return nil, fmt.Errorf("admin token hash: %w", err)
		}
		return []byte(configured), nil
	}
	return h.Hash(configured)
}

// IsBcrypt reports whether s carries a bcrypt prefix.
func IsBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// Fake provides a no-op hasher for testing (NOT FOR PRODUCTION).
type Fake struct{}

// Hash returns the plaintext as bytes.
func (Fake) Hash(plaintext string) ([]byte, error) {
	return []byte(plaintext), nil
}

// Compare does simple equality check.
func (Fake) Compare(hash []byte, plaintext string) bool {
	return string(hash) == plaintext
}

// Ensure interface compliance.
var _ ports.Hasher = Fake{}
