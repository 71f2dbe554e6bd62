package database

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestConnectRedisRejectsBadURL(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "mysql://localhost", "test", zerolog.New(io.Discard))
	if err == nil || !strings.Contains(err.Error(), "parse redis URL") {
		t.Fatalf("got %v", err)
	}
}

func TestConnectRedisStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ConnectRedis(ctx, "redis://127.0.0.1:1/0", "test", zerolog.New(io.Discard))
	if err == nil || !strings.Contains(err.Error(), "after 1 attempt(s)") {
		t.Fatalf("expected a single failed attempt, got %v", err)
	}
}
