package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T, limit int64, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, limit, window), mr
}

func TestAllow(t *testing.T) {
	l, _ := newLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "ip:1.2.3.4")
		if err != nil {
			t.Fatalf("Allow #%d: %v", i, err)
		}
		if !ok {
			t.Fatalf("request #%d denied under the limit", i)
		}
	}
	ok, err := l.Allow(ctx, "ip:1.2.3.4")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Error("request over the limit allowed")
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l, _ := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if ok, _ := l.Allow(ctx, "ip:1.2.3.4"); !ok {
		t.Fatal("first key denied")
	}
	if ok, _ := l.Allow(ctx, "ip:5.6.7.8"); !ok {
		t.Error("second key denied by first key's counter")
	}
}

func TestAllow_WindowResets(t *testing.T) {
	l, mr := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if ok, _ := l.Allow(ctx, "ip:1.2.3.4"); !ok {
		t.Fatal("first request denied")
	}
	if ok, _ := l.Allow(ctx, "ip:1.2.3.4"); ok {
		t.Fatal("second request in the same window allowed")
	}

	mr.FastForward(time.Minute + time.Second)

	if ok, err := l.Allow(ctx, "ip:1.2.3.4"); err != nil || !ok {
		t.Errorf("request after window = (%v, %v), want allowed", ok, err)
	}
}
