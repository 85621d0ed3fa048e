package auth

import (
	"context"
	"sync"
	"time"
)

// LockoutStore tracks failed login attempts per account and the temporary
// lock that follows too many of them. Implementations must be safe for
// concurrent use; in multi-instance deployments a shared backend (see
// RedisLockoutStore) is required or lockout state diverges between instances.
type LockoutStore interface {
	// CheckLocked reports whether the account is currently locked and,
	// if so, until when.
	CheckLocked(ctx context.Context, email string) (bool, time.Time, error)
	// RecordFailure increments the failure counter. When the counter
	// reaches the threshold the account is locked for the window, the
	// counter resets, and the lock deadline is returned.
	RecordFailure(ctx context.Context, email string) (*time.Time, error)
	// RecordSuccess clears the counter and any lock.
	RecordSuccess(ctx context.Context, email string) error
}

type lockoutEntry struct {
	failed      int
	lockedUntil time.Time
	updatedAt   time.Time
}

// MemoryLockoutStore is the default single-instance LockoutStore.
type MemoryLockoutStore struct {
	mu          sync.Mutex
	maxAttempts int
	lockWindow  time.Duration
	entries     map[string]*lockoutEntry
	now         func() time.Time
}

func NewMemoryLockoutStore(maxAttempts int, lockWindow time.Duration) *MemoryLockoutStore {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if lockWindow <= 0 {
		lockWindow = 15 * time.Minute
	}

	return &MemoryLockoutStore{
		maxAttempts: maxAttempts,
		lockWindow:  lockWindow,
		entries:     make(map[string]*lockoutEntry),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryLockoutStore) CheckLocked(_ context.Context, email string) (bool, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[email]
	if !ok || entry.lockedUntil.IsZero() {
		return false, time.Time{}, nil
	}
	if s.now().Before(entry.lockedUntil) {
		return true, entry.lockedUntil, nil
	}

	return false, time.Time{}, nil
}

func (s *MemoryLockoutStore) RecordFailure(_ context.Context, email string) (*time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[email]
	if !ok {
		entry = &lockoutEntry{}
		s.entries[email] = entry
	}

	if !entry.lockedUntil.IsZero() && now.Before(entry.lockedUntil) {
		until := entry.lockedUntil
		entry.updatedAt = now
		return &until, nil
	}

	entry.failed++
	entry.updatedAt = now
	if entry.failed >= s.maxAttempts {
		entry.failed = 0
		entry.lockedUntil = now.Add(s.lockWindow)
		until := entry.lockedUntil
		return &until, nil
	}
	entry.lockedUntil = time.Time{}

	return nil, nil
}

func (s *MemoryLockoutStore) RecordSuccess(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, email)
	return nil
}

// PurgeStale drops entries that are unlocked and untouched since cutoff.
func (s *MemoryLockoutStore) PurgeStale(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for email, entry := range s.entries {
		locked := !entry.lockedUntil.IsZero() && now.Before(entry.lockedUntil)
		if !locked && entry.updatedAt.Before(cutoff) {
			delete(s.entries, email)
			purged++
		}
	}

	return purged
}
