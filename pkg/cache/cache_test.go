package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type point struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

func TestMemoryRoundTripsJSON(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	in := []point{{"2024-01-02", 101.5}, {"2024-01-03", 102}}
	if err := mc.Set(ctx, "k", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out []point
	if err := mc.Get(ctx, "k", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(out) != 2 || out[1].Close != 102 {
		t.Fatalf("out = %+v", out)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()
	clock := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return clock }

	_ = mc.Set(ctx, "k", "v", time.Minute)
	clock = clock.Add(2 * time.Minute)

	var s string
	if err := mc.Get(ctx, "k", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want miss", err)
	}
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	clock := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { clock = clock.Add(time.Second); return clock }

	_ = mc.Set(ctx, "a", 1, time.Hour)
	_ = mc.Set(ctx, "b", 2, time.Hour)
	var v int
	_ = mc.Get(ctx, "a", &v)
	_ = mc.Set(ctx, "c", 3, time.Hour)

	if err := mc.Get(ctx, "b", &v); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("b should be evicted, err = %v", err)
	}
	if err := mc.Get(ctx, "a", &v); err != nil || v != 1 {
		t.Fatalf("a = %d, err = %v", v, err)
	}
}

func TestMemoryTryLock(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	ok, _ := mc.TryLock(ctx, "lock", time.Minute)
	if !ok {
		t.Fatalf("first lock should succeed")
	}
	if ok, _ := mc.TryLock(ctx, "lock", time.Minute); ok {
		t.Fatalf("second lock should fail")
	}
	_ = mc.Unlock(ctx, "lock")
	if ok, _ := mc.TryLock(ctx, "lock", time.Minute); !ok {
		t.Fatalf("lock after unlock should succeed")
	}
}

func TestLayeredPromotesFromL2(t *testing.T) {
	ctx := context.Background()
	l1, l2 := NewMemoryCache(), NewMemoryCache()
	lc := NewLayeredCache(l1, l2, time.Minute)
	defer lc.Close()

	_ = l2.Set(ctx, "k", point{"2024-01-02", 99}, time.Hour)

	var got point
	if err := lc.Get(ctx, "k", &got); err != nil || got.Close != 99 {
		t.Fatalf("got %+v err %v", got, err)
	}
	var cached point
	if err := l1.Get(ctx, "k", &cached); err != nil || cached.Close != 99 {
		t.Fatalf("value not promoted to L1: %+v %v", cached, err)
	}
}

func TestLayeredSetWritesThrough(t *testing.T) {
	ctx := context.Background()
	l1, l2 := NewMemoryCache(), NewMemoryCache()
	lc := NewLayeredCache(l1, l2, time.Minute)
	defer lc.Close()

	if err := lc.Set(ctx, "k", "v", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	for name, c := range map[string]Service{"l1": l1, "l2": l2} {
		var s string
		if err := c.Get(ctx, "k", &s); err != nil || s != "v" {
			t.Fatalf("%s: %q %v", name, s, err)
		}
	}
}

func TestGenerateKey(t *testing.T) {
	if k := GenerateKey("series", "yahoo", "AAPL", "2024-01-02"); k != "series:yahoo:AAPL:2024-01-02" {
		t.Fatalf("key = %q", k)
	}
}
