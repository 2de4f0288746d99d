// Package cache holds short-lived copies of fetch-all collections.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"oldphonedeals/internal/listview"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache: miss")

// Cache stores opaque values with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Observer is told the result of every cache lookup.
type Observer interface {
	ObserveCache(result string)
}

// Lookup results reported to an Observer.
const (
	ResultHit    = "hit"
	ResultMiss   = "miss"
	ResultBypass = "bypass"
	ResultError  = "error"
)

// Redis is a Cache backed by a Redis server.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis wraps rdb. Keys are stored under prefix.
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.prefix+key, value, ttl).Err()
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error)              { return nil, ErrMiss }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

type collection[T any] struct {
	cache     Cache
	ttl       time.Duration
	namespace string
	next      listview.CollectionFetcher[T]
	observer  Observer
}

// Collection wraps next with a read-through cache. Entries are keyed by
// namespace and the encoded filters. Refresh loads (see listview.WithRefresh)
// skip the read but still store the fresh result. Cache failures fall
// through to next.
func Collection[T any](c Cache, ttl time.Duration, namespace string, next listview.CollectionFetcher[T], obs Observer) listview.CollectionFetcher[T] {
	if c == nil || ttl <= 0 {
		return next
	}
	return &collection[T]{cache: c, ttl: ttl, namespace: namespace, next: next, observer: obs}
}

func (c *collection[T]) FetchAll(ctx context.Context, filters listview.Filters) ([]T, error) {
	key := Key(c.namespace, filters)

	if listview.IsRefresh(ctx) {
		c.observe(ResultBypass)
	} else {
		raw, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			var items []T
			if err := json.Unmarshal(raw, &items); err == nil {
				c.observe(ResultHit)
				return items, nil
			}
			log.Warn().Err(err).Str("key", key).Msg("cache: dropping undecodable entry")
			c.observe(ResultError)
		case errors.Is(err, ErrMiss):
			c.observe(ResultMiss)
		default:
			log.Warn().Err(err).Str("key", key).Msg("cache: get failed")
			c.observe(ResultError)
		}
	}

	items, err := c.next.FetchAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(items); err == nil {
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache: set failed")
		}
	}
	return items, nil
}

func (c *collection[T]) observe(result string) {
	if c.observer != nil {
		c.observer.ObserveCache(result)
	}
}

// Key derives the cache key of a namespace and filter set.
func Key(namespace string, filters listview.Filters) string {
	sum := sha256.Sum256([]byte(filters.Values().Encode()))
	return "collection:" + namespace + ":" + hex.EncodeToString(sum[:8])
}
