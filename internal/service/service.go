// Package service implements the operations exposed to the HTTP layer and
// the operator CLI.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"procurement-transparency/internal/cache"
	"procurement-transparency/internal/database"
	"procurement-transparency/internal/store"

	"github.com/google/uuid"
)

// Deps are shared by every service.
type Deps struct {
	Store    *store.Store
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = time.Minute
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// invalidate drops cached read models after a write. Errors only cost
// freshness until the TTL runs out.
func (d Deps) invalidate(ctx context.Context) {
	// без ttl: поколение должно пережить все записи кэша
	if err := d.Cache.Set(ctx, cache.KeyGeneration, []byte(uuid.NewString()), 0); err != nil {
		d.Logger.WarnContext(ctx, "cache generation bump failed", "error", err)
	}
	if err := d.Cache.Delete(ctx, cache.KeyOverview, cache.KeyMinistries); err != nil {
		d.Logger.WarnContext(ctx, "cache invalidation failed", "error", err)
	}
}

// cached serves key from the cache or fills it with load.
type cacheEntry[T any] struct {
	Gen   string `json:"gen"`
	Value T      `json:"value"`
}

// generation reports the current cache generation. ok is false when the
// generation could not be read and nothing should be cached.
func (d Deps) generation(ctx context.Context) (gen string, ok bool) {
	b, err := d.Cache.Get(ctx, cache.KeyGeneration)
	switch {
	case err == nil:
		return string(b), true
	case errors.Is(err, cache.ErrMiss):
		return "", true
	}
	d.Logger.WarnContext(ctx, "cache generation read failed", "error", err)
	return "", false
}

// cached serves key from the cache, loading and storing it on a miss. A value
// loaded while an invalidation ran is stored under the old generation and is
// never served.
func cached[T any](ctx context.Context, d Deps, key string, load func() (T, error)) (T, error) {
	gen, ok := d.generation(ctx)
	if !ok {
		return load()
	}

	var e cacheEntry[T]
	err := cache.GetJSON(ctx, d.Cache, key, &e)
	if err == nil && e.Gen == gen {
		return e.Value, nil
	}
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		d.Logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if err := cache.SetJSON(ctx, d.Cache, key, cacheEntry[T]{Gen: gen, Value: v}, d.CacheTTL); err != nil {
		d.Logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return v, nil
}

func (d Deps) audit(ctx context.Context, actorID *uint, entity, entityID, action, details string) {
	database.CreateAuditLog(ctx, d.Store.DB(), actorID, entity, entityID, action, details)
}

func projectErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrProjectNotFound
	}
	return err
}
