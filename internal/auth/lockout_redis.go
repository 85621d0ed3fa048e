package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lockoutFailuresPrefix = "confedit:lockout:failures:"
	lockoutLockPrefix     = "confedit:lockout:lock:"
)

// RedisLockoutStore keeps lockout state in Redis so that all instances of the
// service observe the same counters and locks.
type RedisLockoutStore struct {
	client      redis.UniversalClient
	maxAttempts int
	lockWindow  time.Duration
}

func NewRedisLockoutStore(client redis.UniversalClient, maxAttempts int, lockWindow time.Duration) *RedisLockoutStore {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if lockWindow <= 0 {
		lockWindow = 15 * time.Minute
	}

	return &RedisLockoutStore{
		client:      client,
		maxAttempts: maxAttempts,
		lockWindow:  lockWindow,
	}
}

func (s *RedisLockoutStore) CheckLocked(ctx context.Context, email string) (bool, time.Time, error) {
	ttl, err := s.client.TTL(ctx, lockoutLockPrefix+email).Result()
	if err != nil {
		return false, time.Time{}, fmt.Errorf("read lockout ttl: %w", err)
	}
	if ttl <= 0 {
		return false, time.Time{}, nil
	}

	return true, time.Now().UTC().Add(ttl), nil
}

func (s *RedisLockoutStore) RecordFailure(ctx context.Context, email string) (*time.Time, error) {
	locked, until, err := s.CheckLocked(ctx, email)
	if err != nil {
		return nil, err
	}
	if locked {
		return &until, nil
	}

	key := lockoutFailuresPrefix + email
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("increment failure counter: %w", err)
	}
	if count == 1 {
		// First failure starts the counting window; the counter decays
		// on its own if the threshold is never reached.
		if err := s.client.Expire(ctx, key, s.lockWindow).Err(); err != nil {
			return nil, fmt.Errorf("set failure counter ttl: %w", err)
		}
	}

	if count < int64(s.maxAttempts) {
		return nil, nil
	}

	deadline := time.Now().UTC().Add(s.lockWindow)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, lockoutLockPrefix+email, "1", s.lockWindow)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("engage lockout: %w", err)
	}

	return &deadline, nil
}

func (s *RedisLockoutStore) RecordSuccess(ctx context.Context, email string) error {
	err := s.client.Del(ctx, lockoutFailuresPrefix+email, lockoutLockPrefix+email).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("reset lockout state: %w", err)
	}

	return nil
}
