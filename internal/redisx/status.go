package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OrderStatus is the cached value under KeyOrderStatus.
type OrderStatus struct {
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func CacheOrderStatus(ctx context.Context, rdb *redis.Client, orderID, status string, at time.Time) error {
	b, err := json.Marshal(OrderStatus{Status: status, UpdatedAt: at.UTC()})
	if err != nil {
		return err
	}
	return rdb.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), b, TTLStatusCache).Err()
}

// CachedOrderStatus reports ok=false on a cache miss. A corrupt entry is
// treated as a miss.
func CachedOrderStatus(ctx context.Context, rdb *redis.Client, orderID string) (OrderStatus, bool, error) {
	s, err := rdb.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return OrderStatus{}, false, nil
	}
	if err != nil {
		return OrderStatus{}, false, err
	}
	var st OrderStatus
	if err := json.Unmarshal([]byte(s), &st); err != nil || st.Status == "" {
		return OrderStatus{}, false, nil
	}
	return st, true, nil
}

// MarkOnce sets the dedup key for (service, id) and reports whether this
// call was the first to do so.
func MarkOnce(ctx context.Context, rdb *redis.Client, service, id string) (bool, error) {
	return rdb.SetNX(ctx, fmt.Sprintf(KeyDedup, service, id), "1", TTLDedup).Result()
}

// Forget removes a dedup key so a failed event can be processed again.
func Forget(ctx context.Context, rdb *redis.Client, service, id string) error {
	return rdb.Del(ctx, fmt.Sprintf(KeyDedup, service, id)).Err()
}
