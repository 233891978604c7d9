package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bagooon/chatease-intake/internal/domain"
)

// keyPrefix namespaces session keys in a shared Redis instance.
const keyPrefix = "chatease:session:"

// RedisStore is a Store backed by Redis, for deployments running more than
// one instance. Values are stored as JSON with a per-key TTL; Claim uses
// GETDEL so the read and the removal are one server-side operation.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore builds a RedisStore on the given client. A ttl <= 0 falls
// back to DefaultTTL.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Get returns the stored values for key, or (nil, nil) when absent.
func (s *RedisStore) Get(ctx context.Context, key string) (*domain.SubmissionValues, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get %q: %w", key, err)
	}
	return decodeValues(key, raw)
}

// Set stores values under key with the store TTL.
func (s *RedisStore) Set(ctx context.Context, key string, values domain.SubmissionValues) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("session encode %q: %w", key, err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session set %q: %w", key, err)
	}
	return nil
}

// Delete removes the state for key. Deleting an absent key is a no-op.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("session delete %q: %w", key, err)
	}
	return nil
}

// Claim atomically returns and removes the state for key via GETDEL.
func (s *RedisStore) Claim(ctx context.Context, key string) (*domain.SubmissionValues, error) {
	raw, err := s.client.GetDel(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session claim %q: %w", key, err)
	}
	return decodeValues(key, raw)
}

func decodeValues(key string, raw []byte) (*domain.SubmissionValues, error) {
	var v domain.SubmissionValues
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("session decode %q: %w", key, err)
	}
	return &v, nil
}
