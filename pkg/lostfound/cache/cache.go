// Package cache provides a Redis-backed read-through cache for the item
// listing. It decorates any lostfound.Repository; writes go straight to the
// wrapped repository and then drop the cached list.
//
// Every invalidation also bumps a generation counter stored next to the
// list. A reader only writes its snapshot back if the generation is the one
// it saw before querying the store, so a list read before a concurrent write
// is never cached after that write's invalidation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tendant/lost-and-found/pkg/lostfound"
)

// DefaultKey is the Redis key holding the cached listing.
const DefaultKey = "lostfound:items:all"

// Config for the caching repository
type Config struct {
	Key string        // Redis key (default: DefaultKey)
	TTL time.Duration // Entry lifetime (default: 30s)
}

// Repository wraps a lostfound.Repository and caches ListAll in Redis.
// Cache failures are logged and fall back to the wrapped repository.
type Repository struct {
	lostfound.Repository
	client *redis.Client
	key    string
	genKey string
	ttl    time.Duration
}

// New wraps inner with a Redis list cache.
func New(client *redis.Client, inner lostfound.Repository, config Config) *Repository {
	if config.Key == "" {
		config.Key = DefaultKey
	}
	if config.TTL <= 0 {
		config.TTL = 30 * time.Second
	}
	return &Repository{
		Repository: inner,
		client:     client,
		key:        config.Key,
		genKey:     config.Key + ":gen",
		ttl:        config.TTL,
	}
}

func (r *Repository) Insert(ctx context.Context, item lostfound.NewItem) (*lostfound.Item, error) {
	created, err := r.Repository.Insert(ctx, item)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return created, nil
}

func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	if err := r.Repository.DeleteByID(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *Repository) ListAll(ctx context.Context) ([]*lostfound.Item, error) {
	cached, err := r.client.Get(ctx, r.key).Bytes()
	switch {
	case err == nil:
		var items []*lostfound.Item
		if jerr := json.Unmarshal(cached, &items); jerr == nil {
			return items, nil
		} else {
			slog.Warn("Discarding unreadable item cache", "key", r.key, "error", jerr)
		}
	case errors.Is(err, redis.Nil):
	default:
		slog.Warn("Item cache unavailable", "key", r.key, "error", err)
	}

	gen, genErr := r.generation(ctx, r.client)

	items, err := r.Repository.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		return items, nil
	}
	if data, err := json.Marshal(items); err == nil {
		r.populate(ctx, gen, data)
	}
	return items, nil
}

// Uncached returns the wrapped repository.
func (r *Repository) Uncached() lostfound.Repository {
	return r.Repository
}

// Ping checks the wrapped repository only. An unreachable Redis degrades the
// listing to uncached reads, so it is logged rather than reported.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.Repository.Ping(ctx); err != nil {
		return err
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		slog.Warn("Item cache unreachable", "key", r.key, "error", err)
	}
	return nil
}

// Close closes the wrapped repository. The Redis client is owned by the caller.
func (r *Repository) Close(ctx context.Context) error {
	return r.Repository.Close(ctx)
}

// generation reads the invalidation counter. A missing counter is 0.
func (r *Repository) generation(ctx context.Context, c getter) (int64, error) {
	gen, err := c.Get(ctx, r.genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// populate stores data under the list key if no invalidation happened since
// gen was read.
func (r *Repository) populate(ctx context.Context, gen int64, data []byte) {
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.generation(ctx, tx)
		if err != nil {
			return err
		}
		if current != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, data, r.ttl)
			return nil
		})
		return err
	}, r.genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		slog.Debug("Skipped caching outdated item list", "key", r.key)
	default:
		slog.Warn("Failed to populate item cache", "key", r.key, "error", err)
	}
}

var errStale = errors.New("item list changed while loading")

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *Repository) invalidate(ctx context.Context) {
	drop := func(ctx context.Context) error {
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Incr(ctx, r.genKey)
			pipe.Del(ctx, r.key)
			return nil
		})
		return err
	}
	// Retry once without the request's cancellation.
	if err := drop(ctx); err != nil {
		if err := drop(context.WithoutCancel(ctx)); err != nil {
			slog.Error("Failed to invalidate item cache", "key", r.key, "error", err)
		}
	}
}
