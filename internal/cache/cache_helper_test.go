package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedSchool struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

func newTestCache(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheHelper(client, CatalogCacheConfig.Prefix), mr
}

func TestCacheSetGetRoundTrip(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	want := cachedSchool{ID: "s1", Name: "Auto École Centrale", Rating: 4.5}
	if err := helper.Set(ctx, "school:s1", want, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got cachedSchool
	if err := helper.Get(ctx, "school:s1", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestCacheGetMiss(t *testing.T) {
	helper, _ := newTestCache(t)

	var got cachedSchool
	err := helper.Get(context.Background(), "school:absent", &got)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheExpiry(t *testing.T) {
	helper, mr := newTestCache(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "school:s1", cachedSchool{ID: "s1"}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	var got cachedSchool
	if err := helper.Get(ctx, "school:s1", &got); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected ErrCacheNotFound after TTL, got %v", err)
	}
}

func TestCacheDelete(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b"} {
		if err := helper.Set(ctx, key, cachedSchool{ID: key}, time.Minute); err != nil {
			t.Fatalf("Set %s failed: %v", key, err)
		}
	}
	if err := helper.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, err := helper.Exists(ctx, "a")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("deleted key should not exist")
	}
}

func TestCacheOrExecuteFetchesOnce(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return cachedSchool{ID: "s1", Name: "Fetched"}, nil
	}

	var first cachedSchool
	if err := helper.CacheOrExecute(ctx, "school:s1", &first, time.Minute, fetch); err != nil {
		t.Fatalf("first CacheOrExecute failed: %v", err)
	}
	if first.Name != "Fetched" {
		t.Errorf("expected fetched value, got %+v", first)
	}

	// The cache fill is asynchronous; wait for it before the second read.
	deadline := time.Now().Add(2 * time.Second)
	for {
		exists, err := helper.Exists(ctx, "school:s1")
		if err != nil {
			t.Fatalf("Exists failed: %v", err)
		}
		if exists {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("cache fill never landed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	var second cachedSchool
	if err := helper.CacheOrExecute(ctx, "school:s1", &second, time.Minute, fetch); err != nil {
		t.Fatalf("second CacheOrExecute failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected 1 fetch, got %d", calls)
	}
	if second.Name != "Fetched" {
		t.Errorf("expected cached value, got %+v", second)
	}
}

func TestCacheDegradesWithoutClient(t *testing.T) {
	helper := NewCacheHelper(nil, "test:")
	ctx := context.Background()

	if err := helper.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Set without client must degrade silently, got %v", err)
	}
	var out string
	if err := helper.Get(ctx, "k", &out); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
}
