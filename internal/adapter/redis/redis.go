// Package redis implements domain.KeyValueStore on Redis.
package redis

import (
	"context"
	"errors"
	"time"

	"healthmate/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

var _ domain.KeyValueStore = (*Store)(nil)

// Store is a Redis-backed KeyValueStore. Keys are namespaced by prefix.
type Store struct {
	client *goredis.Client
	prefix string
}

// Open parses url, connects and pings.
func Open(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return New(client, prefix), nil
}

// New wraps an existing client.
func New(client *goredis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Put stores value under key. A non-positive ttl never expires.
func (s *Store) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

// Get returns the value under key if it exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Incr increments the counter under key. The first increment sets the
// expiry.
func (s *Store) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	k := s.prefix + key
	n, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && ttl > 0 {
		if err := s.client.Expire(ctx, k, ttl).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}
