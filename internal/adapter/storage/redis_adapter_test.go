package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/food-shelter/internal/core/domain"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestSetIdempotency_Success(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	// Setup
	client.Del(ctx, "idempotency:test-idem-key")

	// First call should succeed
	ok, err := adapter.SetIdempotency(ctx, "test-idem-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected first call to succeed")
	}

	// Second call should fail (key exists)
	ok, err = adapter.SetIdempotency(ctx, "test-idem-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected second call to fail")
	}
}

func TestReleaseIdempotency_AllowsRetry(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	client.Del(ctx, "idempotency:release-idem-key")

	ok, err := adapter.SetIdempotency(ctx, "release-idem-key")
	if err != nil || !ok {
		t.Fatalf("expected first claim to succeed, got ok=%v err=%v", ok, err)
	}
	if err := adapter.ReleaseIdempotency(ctx, "release-idem-key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err = adapter.SetIdempotency(ctx, "release-idem-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected claim after release to succeed")
	}
}

func TestSetIdempotency_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	// Setup
	client.Del(ctx, "idempotency:concurrent-idem-key")

	var successCount atomic.Int32
	var wg sync.WaitGroup
	concurrency := 100

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := adapter.SetIdempotency(ctx, "concurrent-idem-key")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				successCount.Add(1)
			}
		}()
	}

	wg.Wait()

	// Only one should succeed
	if successCount.Load() != 1 {
		t.Errorf("expected exactly 1 success, got %d", successCount.Load())
	}
}

func TestCoordinates_RoundTrip(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	client.Del(ctx, "geocode:1 main st, springfield")

	miss, err := adapter.GetCoordinates(ctx, "1 Main St,  Springfield")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if miss != nil {
		t.Fatal("expected cache miss")
	}

	want := domain.Coordinates{Latitude: 39.7817, Longitude: -89.6501}
	if err := adapter.SetCoordinates(ctx, "1 Main St, Springfield", want, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// differently spaced and cased spelling hits the same entry
	got, err := adapter.GetCoordinates(ctx, "1 main st,   SPRINGFIELD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || *got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGeocodeKey_Normalizes(t *testing.T) {
	if geocodeKey("  Dam 1 \t Amsterdam ") != "geocode:dam 1 amsterdam" {
		t.Errorf("unexpected key %q", geocodeKey("  Dam 1 \t Amsterdam "))
	}
}

func TestDecodeCoordinates(t *testing.T) {
	c, err := decodeCoordinates(encodeCoordinates(domain.Coordinates{Latitude: -33.8688, Longitude: 151.2093}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Latitude != -33.8688 || c.Longitude != 151.2093 {
		t.Errorf("unexpected coordinates %v", c)
	}

	for _, bad := range []string{"", "12.5", "a,b", "1,b"} {
		if _, err := decodeCoordinates(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
