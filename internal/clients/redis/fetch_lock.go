package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dealscout/backend/internal/logger"
)

// FetchLock is a per-product advisory lock held around a cache-miss fetch so
// concurrent requests for the same product do not both hit the provider.
type FetchLock interface {
	// Acquire returns a release func and whether the lock was obtained.
	// When locking is unavailable the caller proceeds unlocked, accepting
	// last-writer-wins on the cache.
	Acquire(ctx context.Context, key string) (func(), bool)
	Close() error
}

type fetchLock struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewFetchLock(log *logger.Logger, addr string) (FetchLock, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &fetchLock{
		log: log.With("service", "RedisFetchLock"),
		rdb: rdb,
		ttl: 30 * time.Second,
	}, nil
}

func (l *fetchLock) Acquire(ctx context.Context, key string) (func(), bool) {
	if l == nil || l.rdb == nil {
		return func() {}, false
	}
	lockKey := "fetchlock:product:" + key
	ok, err := l.rdb.SetNX(ctx, lockKey, "1", l.ttl).Result()
	if err != nil {
		l.log.Warn("Lock acquire failed, proceeding unlocked", "key", key, "error", err)
		return func() {}, false
	}
	if !ok {
		return func() {}, false
	}
	return func() {
		if err := l.rdb.Del(context.Background(), lockKey).Err(); err != nil {
			l.log.Debug("Lock release failed, TTL will reap it", "key", key, "error", err)
		}
	}, true
}

func (l *fetchLock) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}

// NoopFetchLock is used when no Redis address is configured.
type NoopFetchLock struct{}

func (NoopFetchLock) Acquire(ctx context.Context, key string) (func(), bool) {
	return func() {}, false
}

func (NoopFetchLock) Close() error { return nil }
