package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a missing conversation and one owned by another user.
	ErrNotFound           = errors.New("conversation not found")
	ErrConversationExists = errors.New("conversation id already exists")
	ErrPersistence        = errors.New("persistence failure")
)

func persistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// UnsavedReplyError is returned when generation succeeded but the reply could
// not be stored. Text holds the generated reply so the caller can retry the
// save or drop it.
type UnsavedReplyError struct {
	Text string
	Err  error
}

func (e *UnsavedReplyError) Error() string {
	return fmt.Sprintf("reply generated but not saved: %v", e.Err)
}

func (e *UnsavedReplyError) Unwrap() error { return e.Err }
