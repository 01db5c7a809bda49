package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestInMemoryRateCacheStoreTTL(t *testing.T) {
	store := NewInMemoryRateCacheStore()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "exchange_rate"); err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "exchange_rate", []byte("0.92"), 50*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	payload, ok, err := store.Get(ctx, "exchange_rate")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(payload, []byte("0.92")) {
		t.Fatalf("unexpected payload: %q", payload)
	}

	time.Sleep(80 * time.Millisecond)
	if _, ok, _ := store.Get(ctx, "exchange_rate"); ok {
		t.Fatal("expected miss after expiry")
	}
}

func TestInMemoryRateCacheStoreIgnoresNonPositiveTTL(t *testing.T) {
	store := NewInMemoryRateCacheStore()
	ctx := context.Background()

	if err := store.Set(ctx, "exchange_rate", []byte("0.92"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "exchange_rate"); ok {
		t.Fatal("zero TTL writes must not be stored")
	}
}

func TestRedisRateCacheStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisRateCacheStore(client, "rate_cache")
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "exchange_rate"); err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "exchange_rate", []byte("0.92"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	payload, ok, err := store.Get(ctx, "exchange_rate")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(payload, []byte("0.92")) {
		t.Fatalf("unexpected payload: %q", payload)
	}
	if !mr.Exists("rate_cache:exchange_rate") {
		t.Fatal("expected prefixed key in redis")
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "exchange_rate"); ok {
		t.Fatal("expected miss after redis TTL expiry")
	}
}
