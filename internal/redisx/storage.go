package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-rental-checkout/internal/kv"
)

// Storage is a kv.Store backed by Redis. Every Set refreshes the TTL, so a
// bag that is touched stays alive.
type Storage struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStorage(rdb *redis.Client, ttl time.Duration) *Storage {
	return &Storage{rdb: rdb, ttl: ttl}
}

func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func BagKey(session string) string   { return fmt.Sprintf(KeyBag, session) }
func PromoKey(session string) string { return fmt.Sprintf(KeyPromo, session) }
