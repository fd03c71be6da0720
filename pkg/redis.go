package pkg

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 5 * time.Second

// RedisStore keeps JSON values under a key prefix
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store. A zero ttl keeps keys forever.
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the full redis key of key
func (s *RedisStore) Key(key string) string {
	return s.prefix + key
}

// Set stores a value with the store TTL. The value is JSON-serialized.
func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.Key(key), data, s.ttl).Err()
}

// Get retrieves a value and JSON-deserializes it into dest.
// Returns redis.Nil if the key does not exist.
func (s *RedisStore) Get(ctx context.Context, key string, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.Key(key)).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Delete removes a key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	return s.client.Del(ctx, s.Key(key)).Err()
}

// IsRedisNil returns true if the error is a redis key-not-found error.
func IsRedisNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

type verification struct {
	Digest     string    `json:"digest"`
	VerifiedAt time.Time `json:"verifiedAt"`
}

// Verified reports whether sources with digest already compiled cleanly.
// A record stored under the key for another digest is stale and removed.
func (s *RedisStore) Verified(ctx context.Context, digest string) (bool, error) {
	var v verification
	if err := s.Get(ctx, digest, &v); err != nil {
		if IsRedisNil(err) {
			return false, nil
		}
		return false, err
	}
	if v.Digest != digest {
		return false, s.Delete(ctx, digest)
	}
	return true, nil
}

// MarkVerified records that sources with digest compiled cleanly
func (s *RedisStore) MarkVerified(ctx context.Context, digest string) error {
	return s.Set(ctx, digest, verification{Digest: digest, VerifiedAt: time.Now().UTC()})
}
