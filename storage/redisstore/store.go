// Package redisstore implements storage.KV on top of go-redis.
//
// Keys are namespaced with a prefix ("<prefix>:<key>") so the session slot can share
// a Redis database with other tenants of the same instance.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/aura/storage"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces keys when none is configured.
const DefaultPrefix = "aura"

// Store defines a storage.KV backed by a Redis client.
//
// Store instances are intended to be configured during initialization and then treated as immutable.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore wraps client. An empty prefix selects DefaultPrefix.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Store) key(k string) string {
	return s.prefix + ":" + k
}

// Get returns the raw value under key or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return data, nil
}

// Set writes value under key without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

// Ping round-trips to the server.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}
