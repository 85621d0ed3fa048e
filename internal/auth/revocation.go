package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// RevocationStore remembers refresh tokens invalidated by logout. Entries are
// keyed by a digest of the raw token, never the token itself. An entry only
// needs to outlive the token's own expiry, after which it may be dropped. As
// with LockoutStore, multi-instance deployments need a shared backend.
type RevocationStore interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MemoryRevocationStore is the default single-instance RevocationStore.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[tokenDigest(token)] = expiresAt.UTC()
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[tokenDigest(token)]
	return ok, nil
}

// PurgeExpired drops entries whose underlying token has expired anyway.
func (s *MemoryRevocationStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for digest, expiresAt := range s.entries {
		if now.After(expiresAt) {
			delete(s.entries, digest)
			purged++
		}
	}

	return purged
}
