package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestKeyPrefix(t *testing.T) {
	s := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "arbdash:")
	defer s.Close()
	if got := s.key("monthConfigs"); got != "arbdash:monthConfigs" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestConnectUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// Port 1 is reserved and nothing listens there in test environments.
	if _, err := Connect(ctx, "127.0.0.1:1", "", 0, ""); err == nil {
		t.Fatalf("expected connection error")
	}
}
