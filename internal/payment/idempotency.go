package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Store remembers the outcome of completed gateway calls by idempotency key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// MemoryStore is a process-local Store used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// IdempotentGateway replays recorded outcomes for keys it has already seen
// and records new successes. The gateway's own idempotency key remains the
// source of truth; a store outage only costs an extra round trip.
type IdempotentGateway struct {
	next   Gateway
	store  Store
	ttl    time.Duration
	logger *logrus.Logger
}

func NewIdempotentGateway(next Gateway, store Store, ttl time.Duration, logger *logrus.Logger) *IdempotentGateway {
	return &IdempotentGateway{next: next, store: store, ttl: ttl, logger: logger}
}

func (g *IdempotentGateway) Authorize(ctx context.Context, key string, amount int64, currency string) (string, error) {
	if v, ok := g.lookup(ctx, key); ok {
		return v, nil
	}
	ref, err := g.next.Authorize(ctx, key, amount, currency)
	if err != nil {
		return "", err
	}
	g.record(ctx, key, ref)
	return ref, nil
}

func (g *IdempotentGateway) Capture(ctx context.Context, key, authRef string) (string, error) {
	if v, ok := g.lookup(ctx, key); ok {
		return v, nil
	}
	ref, err := g.next.Capture(ctx, key, authRef)
	if err != nil {
		return "", err
	}
	g.record(ctx, key, ref)
	return ref, nil
}

func (g *IdempotentGateway) Void(ctx context.Context, key, authRef string) error {
	if _, ok := g.lookup(ctx, key); ok {
		return nil
	}
	if err := g.next.Void(ctx, key, authRef); err != nil {
		return err
	}
	g.record(ctx, key, "voided")
	return nil
}

func (g *IdempotentGateway) Refund(ctx context.Context, key, captureRef string, amount int64) (RefundResult, error) {
	if v, ok := g.lookup(ctx, key); ok {
		if res, err := decodeRefund(v); err == nil {
			return res, nil
		}
	}
	res, err := g.next.Refund(ctx, key, captureRef, amount)
	if err != nil {
		return RefundResult{}, err
	}
	g.record(ctx, key, encodeRefund(res))
	return res, nil
}

func (g *IdempotentGateway) lookup(ctx context.Context, key string) (string, bool) {
	v, ok, err := g.store.Get(ctx, key)
	if err != nil {
		g.logger.WithField("key", key).WithError(err).Warn("idempotency store read failed")
		return "", false
	}
	return v, ok
}

func (g *IdempotentGateway) record(ctx context.Context, key, value string) {
	if err := g.store.Set(ctx, key, value, g.ttl); err != nil {
		g.logger.WithField("key", key).WithError(err).Warn("idempotency store write failed")
	}
}

func encodeRefund(r RefundResult) string {
	return r.Ref + "|" + strconv.FormatInt(r.Amount, 10)
}

func decodeRefund(v string) (RefundResult, error) {
	ref, amount, ok := strings.Cut(v, "|")
	if !ok {
		return RefundResult{}, fmt.Errorf("malformed refund record %q", v)
	}
	n, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return RefundResult{}, fmt.Errorf("malformed refund amount: %w", err)
	}
	return RefundResult{Ref: ref, Amount: n}, nil
}
