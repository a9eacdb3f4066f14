package testutil

import (
	"testing"

	"procurement-transparency/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// NewRedisCache returns a cache backed by an in-process miniredis server.
func NewRedisCache(t testing.TB) *cache.Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	r := cache.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { r.Close() })
	return r
}
