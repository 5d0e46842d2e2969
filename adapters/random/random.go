// Package random provides randomness sources and admin token generation.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/artpar/cmscore/ports"
)

// TokenPrefix marks generated admin tokens.
const TokenPrefix = "cms_"

// tokenBytes is the entropy of a generated admin token.
const tokenBytes = 32

// Real uses crypto/rand.
type Real struct{}

// Bytes generates n cryptographically secure random bytes.
func (Real) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

var _ ports.Random = Real{}

// AdminToken returns a new plaintext admin token: TokenPrefix followed by
// 64 hex characters.
func AdminToken(src ports.Random) (string, error) {
	b, err := src.Bytes(tokenBytes)
	if err != nil {
		return "", err
	}
	return TokenPrefix + hex.EncodeToString(b), nil
}

// Fake returns deterministic bytes for tests.
type Fake struct {
	mu      sync.Mutex
	counter int
}

// Bytes returns n bytes derived from a call counter.
func (f *Fake) Bytes(n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.counter++
	b := make([]byte, n)
	for i := range b {
		b[i] = byte((f.counter + i) % 256)
	}
	return b, nil
}

var _ ports.Random = (*Fake)(nil)
