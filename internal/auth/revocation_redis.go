package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revocationPrefix = "confedit:revoked:"

// RedisRevocationStore stores revocation entries with a per-key TTL equal to
// the revoked token's remaining life, so Redis garbage-collects them itself.
type RedisRevocationStore struct {
	client redis.UniversalClient
}

func NewRedisRevocationStore(client redis.UniversalClient) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; nothing can be minted from it anyway.
		return nil
	}

	if err := s.client.Set(ctx, revocationPrefix+tokenDigest(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("store revocation entry: %w", err)
	}

	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	count, err := s.client.Exists(ctx, revocationPrefix+tokenDigest(token)).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation entry: %w", err)
	}

	return count > 0, nil
}
