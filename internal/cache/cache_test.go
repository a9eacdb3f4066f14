package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { r.Close() })
	return r, mr
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	if _, err := r.Get(ctx, KeyOverview); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	type overview struct{ TotalProjects int }
	if err := SetJSON(ctx, r, KeyOverview, overview{TotalProjects: 6}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got overview
	if err := GetJSON(ctx, r, KeyOverview, &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalProjects != 6 {
		t.Errorf("TotalProjects = %d, want 6", got.TotalProjects)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := r.Get(ctx, KeyOverview); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestRedisDelete(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRedis(t)

	_ = r.Set(ctx, KeyOverview, []byte(`{}`), time.Minute)
	_ = r.Set(ctx, KeyMinistries, []byte(`[]`), time.Minute)

	if err := r.Delete(ctx, KeyOverview, KeyMinistries); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, k := range []string{KeyOverview, KeyMinistries} {
		if _, err := r.Get(ctx, k); !errors.Is(err, ErrMiss) {
			t.Errorf("%s: expected miss after delete, got %v", k, err)
		}
	}
}

func TestGetJSONCorruptEntry(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRedis(t)
	_ = r.Set(ctx, KeyMinistries, []byte(`not json`), time.Minute)

	var names []string
	if err := GetJSON(ctx, r, KeyMinistries, &names); !errors.Is(err, ErrMiss) {
		t.Fatalf("corrupt entry must read as miss, got %v", err)
	}
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("noop must always miss, got %v", err)
	}
}
