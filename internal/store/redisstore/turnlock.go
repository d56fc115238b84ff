package redisstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/suPer8Hu/ai-chat/internal/chat"
)

// release deletes the key only if it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const defaultPollInterval = 50 * time.Millisecond

// TurnLocker serializes turns on a conversation across server instances.
// TTL bounds how long a crashed holder can block the conversation; it should
// exceed the longest expected generation.
type TurnLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	poll   time.Duration
	prefix string
	logger *slog.Logger
}

var _ chat.TurnLocker = (*TurnLocker)(nil)

func (s *Store) TurnLocker(ttl time.Duration, logger *slog.Logger) *TurnLocker {
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TurnLocker{
		rdb:    s.rdb,
		ttl:    ttl,
		poll:   defaultPollInterval,
		prefix: "chat:turnlock:",
		logger: logger.With("component", "turnlock"),
	}
}

func (l *TurnLocker) Lock(ctx context.Context, conversationID string) (func(), error) {
	key := l.prefix + conversationID
	token := uuid.NewString()

	t := time.NewTicker(l.poll)
	defer t.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// the turn's ctx may already be cancelled
		rctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := release.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil {
			l.logger.Warn("turn lock release failed", "key", key, "err", err)
		}
	}, nil
}
