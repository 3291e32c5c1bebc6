// Package apikey checks the x-api-key header sent by devices.
package apikey

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Verifier accepts a key when it matches one configured entry. Entries that look
// like bcrypt hashes are compared with bcrypt, others in constant time.
type Verifier struct {
	hashes [][]byte
	plain  [][]byte

	// Digests of keys that already matched a hash, so bcrypt runs once per key.
	mu       sync.RWMutex
	verified map[[sha256.Size]byte]struct{}
}

// NewVerifier builds verifier from configured keys. Blank entries are ignored.
func NewVerifier(keys []string) *Verifier {
	v := &Verifier{verified: make(map[[sha256.Size]byte]struct{})}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if IsHash(k) {
			v.hashes = append(v.hashes, []byte(k))
			continue
		}
		v.plain = append(v.plain, []byte(k))
	}
	return v
}

// Len returns the number of configured keys.
func (v *Verifier) Len() int {
	return len(v.hashes) + len(v.plain)
}

// Verify reports whether key is accepted.
func (v *Verifier) Verify(key string) bool {
	if key == "" {
		return false
	}
	candidate := []byte(key)
	for _, p := range v.plain {
		if subtle.ConstantTimeCompare(p, candidate) == 1 {
			return true
		}
	}
	if len(v.hashes) == 0 {
		return false
	}

	digest := sha256.Sum256(candidate)
	v.mu.RLock()
	_, ok := v.verified[digest]
	v.mu.RUnlock()
	if ok {
		return true
	}

	for _, h := range v.hashes {
		if bcrypt.CompareHashAndPassword(h, candidate) == nil {
			v.mu.Lock()
			v.verified[digest] = struct{}{}
			v.mu.Unlock()
			return true
		}
	}
	return false
}

// Hash returns a bcrypt hash of key suitable for the ingest configuration.
func Hash(key string, cost int) (string, error) {
	if key == "" {
		return "", errors.New("apikey: empty key")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IsHash reports whether s looks like a bcrypt hash.
func IsHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
