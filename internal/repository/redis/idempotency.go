package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	idemNS     = ns + ":idem"
	lockValue  = "LOCK"
	resultMark = "RES:"
)

func KeyIdemMint(caller domain.Address, idemKey string) string {
	return fmt.Sprintf("%s:mint:%s:%s", idemNS, caller, idemKey)
}

func KeyIdemFund(caller domain.Address, idemKey string) string {
	return fmt.Sprintf("%s:fund:%s:%s", idemNS, caller, idemKey)
}

// IdempotencyStore remembers the response of a mutating request so a retry
// with the same key replays it instead of charging twice.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, lockValue, lockTTL).Result()
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, jsonPayload string) error {
	return s.rdb.Set(ctx, key, resultMark+jsonPayload, s.ttl).Err()
}

func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	payload, ok := strings.CutPrefix(v, resultMark)

	return payload, ok, nil
}

// Release drops the key only while it still holds the in-flight lock, so a
// saved result is never discarded.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	if v != lockValue {
		return nil
	}

	return s.rdb.Del(ctx, key).Err()
}
