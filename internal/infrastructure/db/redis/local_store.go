package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shelfvoice/portal/internal/core/ports"
)

// LocalStore is a ports.LocalStore kept in Redis so several hosts can share
// one portalctl profile.
// Key format: portal:<profile>:<key>
type LocalStore struct {
	client  *redis.Client
	profile string
	timeout time.Duration
}

// NewLocalStore scopes every key to profile.
func NewLocalStore(client *redis.Client, profile string) *LocalStore {
	return &LocalStore{client: client, profile: profile, timeout: defaultDialTimeout}
}

func (s *LocalStore) Get(key string) (string, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ports.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("local store get %s: %w", key, err)
	}
	return v, nil
}

func (s *LocalStore) Set(key, value string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("local store set %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Remove(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("local store remove %s: %w", key, err)
	}
	return nil
}

// The LocalStore contract is synchronous, so each call gets its own deadline.
func (s *LocalStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *LocalStore) key(key string) string {
	return fmt.Sprintf("portal:%s:%s", s.profile, key)
}
