package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "checkout:idem:"
	pending    = "pending"
	pendingTTL = 2 * time.Minute
	DefaultTTL = 24 * time.Hour
)

// commander is the part of redis.Cmdable the store uses.
type commander interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// IdempotencyStore records checkout keys in Redis. A claimed key holds a
// short-lived marker until the checkout completes; a completed key holds the
// JSON list of order ids for ttl.
type IdempotencyStore struct {
	rdb commander
	ttl time.Duration
}

func NewIdempotencyStore(rdb redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *IdempotencyStore) Claim(ctx context.Context, key string) (bool, []string, error) {
	k := keyPrefix + key

	ok, err := s.rdb.SetNX(ctx, k, pending, pendingTTL).Result()
	if err != nil {
		return false, nil, fmt.Errorf("claim key: %w", err)
	}
	if ok {
		return true, nil, nil
	}

	val, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; treat as still running so the
		// client retries.
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("read key: %w", err)
	}
	if val == pending {
		return false, nil, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(val), &ids); err != nil {
		return false, nil, fmt.Errorf("decode key: %w", err)
	}
	return false, ids, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, orderIDs []string) error {
	val, err := json.Marshal(orderIDs)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+key, val, s.ttl).Err()
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, keyPrefix+key).Err()
}
