package chat

import (
	"context"
	"sync"
)

// TurnLocker serializes turns on one conversation. The returned unlock func
// must be called exactly once.
type TurnLocker interface {
	Lock(ctx context.Context, conversationID string) (unlock func(), err error)
}

// KeyedMutex is an in-process TurnLocker. Entries are ref-counted and removed
// once no turn holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

func (k *KeyedMutex) Lock(ctx context.Context, conversationID string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[conversationID]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.locks[conversationID] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(conversationID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(conversationID, e)
		})
	}, nil
}

func (k *KeyedMutex) release(conversationID string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, conversationID)
	}
}

func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
