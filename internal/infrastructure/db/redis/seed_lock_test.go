package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestSeedLock_UnreachableServerReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	lock := NewSeedLock(client)
	ok, err := lock.Acquire(context.Background(), "seed:admin")
	if err == nil {
		t.Fatal("expected error from unreachable server")
	}
	if ok {
		t.Error("lock must not be reported as held on error")
	}
	if !strings.Contains(err.Error(), "seed:admin") {
		t.Errorf("error should name the key, got %v", err)
	}
}

func TestConnect_FailsFastOnBadAddress(t *testing.T) {
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatal("expected ping error")
	}
}
