package redisstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a live server: REDIS_ADDR=localhost:6379 go test ./internal/store/redisstore
func newTestLocker(t *testing.T, ttl time.Duration) *TurnLocker {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s, err := New(addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	l := s.TurnLocker(ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.prefix = "test:turnlock:" + uuid.NewString() + ":"
	l.poll = 5 * time.Millisecond
	return l
}

func TestTurnLocker_SerializesSameConversation(t *testing.T) {
	l := newTestLocker(t, time.Minute)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "conv-1")
	require.NoError(t, err)

	wctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(wctx, "conv-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := l.Lock(ctx, "conv-2")
	require.NoError(t, err)
	other()

	unlock()
	again, err := l.Lock(ctx, "conv-1")
	require.NoError(t, err)
	again()
}

func TestTurnLocker_ReleaseDoesNotStealExpiredLock(t *testing.T) {
	l := newTestLocker(t, 30*time.Millisecond)
	ctx := context.Background()

	stale, err := l.Lock(ctx, "conv-1")
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	l.ttl = time.Minute
	fresh, err := l.Lock(ctx, "conv-1")
	require.NoError(t, err)
	defer fresh()

	stale()
	exists, err := l.rdb.Exists(ctx, l.prefix+"conv-1").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)
}
