package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the server-side backend for clients that should not
// carry their state in cookies. Keys are namespaced by session so two
// clients never share a cell.
type RedisStore struct {
	client  *redis.Client
	session string
}

func NewRedisStore(client *redis.Client, session string) *RedisStore {
	return &RedisStore{client: client, session: session}
}

func (s *RedisStore) Get(ctx context.Context, name string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, name string, data []byte) error {
	if err := s.client.Set(ctx, s.key(name), data, TTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) key(name string) string {
	return fmt.Sprintf("state:%s:%s", s.session, name)
}
