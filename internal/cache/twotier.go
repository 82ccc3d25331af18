package cache

import (
	"context"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/contentdistiller/internal/circuitbreaker"
)

// Entry is the generic CacheEntry<T> from the data model: a value plus the
// bookkeeping needed to decide freshness and to carry conditional-GET hints
// through the cache boundary.
type Entry[T any] struct {
	Value        T      `json:"value"`
	InsertedAt   int64  `json:"insertedAt"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
	ContentHash  string `json:"contentHash,omitempty"`
}

func (e Entry[T]) expired(ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return time.Since(time.UnixMilli(e.InsertedAt)) > ttl
}

// RemoteAdapter is the minimal surface TwoTierCache needs from a remote KV
// store. A redis.Client satisfies this directly.
type RemoteAdapter interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	FlushAll(ctx context.Context) error
}

// redisAdapter adapts *redis.Client to RemoteAdapter.
type redisAdapter struct{ client *redis.Client }

func NewRedisAdapter(client *redis.Client) RemoteAdapter { return &redisAdapter{client: client} }

func (r *redisAdapter) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}
func (r *redisAdapter) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}
func (r *redisAdapter) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
func (r *redisAdapter) FlushAll(ctx context.Context) error {
	return r.client.FlushAll(ctx).Err()
}

// Metrics receives per-operation observations. Implementations should be
// cheap; TwoTierCache calls this synchronously on the hot path.
type Metrics interface {
	Observe(op string, tier string, hit bool, latency time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(string, string, bool, time.Duration) {}

// Strategy reports which tier backs reads/writes, matching the "strategy =
// remote | lru" language in the spec.
type Strategy string

const (
	StrategyRemote Strategy = "remote"
	StrategyLRU    Strategy = "lru"
)

// TwoTierCache is the outer remote tier (guarded by a circuit breaker) in
// front of an inner in-memory LRU tier, with redundant writes: a set always
// lands in the LRU even when the remote write failed or was skipped because
// the circuit is open.
type TwoTierCache[T any] struct {
	remote   RemoteAdapter
	breaker  *circuitbreaker.CircuitBreaker
	lru      *lru.Cache[string, Entry[T]]
	ttl      time.Duration
	strategy Strategy
	metrics  Metrics
}

// Options configures construction. LRUSize defaults to 1024. TTL of zero
// means entries never expire on their own (eviction is purely LRU-driven).
type Options struct {
	Remote  RemoteAdapter
	Breaker *circuitbreaker.CircuitBreaker
	LRUSize int
	TTL     time.Duration
	Metrics Metrics
}

func NewTwoTierCache[T any](opt Options) (*TwoTierCache[T], error) {
	size := opt.LRUSize
	if size <= 0 {
		size = 1024
	}
	l, err := lru.New[string, Entry[T]](size)
	if err != nil {
		return nil, err
	}
	strategy := StrategyLRU
	if opt.Remote != nil {
		strategy = StrategyRemote
	}
	m := opt.Metrics
	if m == nil {
		m = noopMetrics{}
	}
	breaker := opt.Breaker
	if breaker == nil {
		breaker = circuitbreaker.New(circuitbreaker.Config{Name: "twotier-remote"})
	}
	return &TwoTierCache[T]{remote: opt.Remote, breaker: breaker, lru: l, ttl: opt.TTL, strategy: strategy, metrics: m}, nil
}

func (c *TwoTierCache[T]) isReady() bool {
	return c.remote != nil && c.breaker.State() != circuitbreaker.Open
}

// Get looks the key up in the remote tier first (when enabled and the
// circuit is closed/half-open), falling back to the LRU on miss, circuit
// open, or remote error.
func (c *TwoTierCache[T]) Get(ctx context.Context, key string) (Entry[T], bool) {
	start := time.Now()
	if c.strategy == StrategyRemote && c.isReady() {
		raw, err := c.breaker.Execute(ctx, func(ctx context.Context) (any, error) {
			return c.remote.Get(ctx, key)
		})
		switch {
		case err == nil:
			var e Entry[T]
			if uerr := json.Unmarshal([]byte(raw.(string)), &e); uerr == nil {
				if !e.expired(c.ttl) {
					c.metrics.Observe("get", "remote", true, time.Since(start))
					c.lru.Add(key, e) // keep inner tier warm
					return e, true
				}
			}
		case circuitbreaker.IsOpen(err):
			log.Debug().Str("key", key).Msg("two-tier cache: remote circuit open, falling back to lru")
		case err == redis.Nil:
			// remote miss; fall through to lru
		default:
			log.Warn().Err(err).Str("key", key).Msg("two-tier cache: remote get failed")
		}
	}
	if e, ok := c.lru.Get(key); ok {
		if !e.expired(c.ttl) {
			c.metrics.Observe("get", "lru", true, time.Since(start))
			return e, true
		}
		c.lru.Remove(key)
	}
	c.metrics.Observe("get", "miss", false, time.Since(start))
	return Entry[T]{}, false
}

// Set writes to both tiers. The remote write is best-effort: an open circuit
// or remote error is swallowed so the LRU write (which always happens) keeps
// the process-local view correct.
func (c *TwoTierCache[T]) Set(ctx context.Context, key string, value T, meta Entry[T]) {
	start := time.Now()
	meta.Value = value
	if meta.InsertedAt == 0 {
		meta.InsertedAt = time.Now().UnixMilli()
	}
	if c.strategy == StrategyRemote && c.isReady() {
		if b, err := json.Marshal(meta); err == nil {
			_, err := c.breaker.Execute(ctx, func(ctx context.Context) (any, error) {
				return nil, c.remote.Set(ctx, key, string(b), c.ttl)
			})
			if err != nil && !circuitbreaker.IsOpen(err) {
				log.Warn().Err(err).Str("key", key).Msg("two-tier cache: remote set failed")
			}
		}
	}
	c.lru.Add(key, meta)
	c.metrics.Observe("set", string(c.strategy), true, time.Since(start))
}

func (c *TwoTierCache[T]) Has(ctx context.Context, key string) bool {
	_, ok := c.Get(ctx, key)
	return ok
}

// Delete removes key from both tiers, best-effort on the remote side.
func (c *TwoTierCache[T]) Delete(ctx context.Context, key string) {
	if c.strategy == StrategyRemote && c.isReady() {
		_, err := c.breaker.Execute(ctx, func(ctx context.Context) (any, error) {
			return nil, c.remote.Del(ctx, key)
		})
		if err != nil && !circuitbreaker.IsOpen(err) {
			log.Warn().Err(err).Str("key", key).Msg("two-tier cache: remote delete failed")
		}
	}
	c.lru.Remove(key)
}

// Clear empties both tiers. It never fails; remote errors are logged only.
func (c *TwoTierCache[T]) Clear(ctx context.Context) {
	if c.strategy == StrategyRemote && c.isReady() {
		_, err := c.breaker.Execute(ctx, func(ctx context.Context) (any, error) {
			return nil, c.remote.FlushAll(ctx)
		})
		if err != nil && !circuitbreaker.IsOpen(err) {
			log.Warn().Err(err).Msg("two-tier cache: remote clear failed")
		}
	}
	c.lru.Purge()
}
