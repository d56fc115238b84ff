package ai

import (
	"context"
	"errors"
	"fmt"
)

// GenerateRequest is a single prompt sent to a text-generation backend.
type GenerateRequest struct {
	Model  string
	Prompt string
	Stream bool
}

// Generator turns a prompt into generated text.
// Streamed upstream responses are collected and returned as one unit.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

var (
	ErrConnectionFailure = errors.New("generation endpoint unreachable")
	ErrUpstream          = errors.New("generation endpoint returned an error")
	ErrMalformedResponse = errors.New("malformed generation response")
)

type Kind int

const (
	KindConnection Kind = iota + 1
	KindUpstream
	KindMalformed
)

// Error is returned by every Generator in this package.
// It matches one of the sentinels above via errors.Is and keeps the cause.
type Error struct {
	Kind       Kind
	Backend    string
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindConnection:
		msg = fmt.Sprintf("%s: connection failure", e.Backend)
	case KindUpstream:
		msg = fmt.Sprintf("%s: status %d", e.Backend, e.StatusCode)
	default:
		msg = fmt.Sprintf("%s: malformed response", e.Backend)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrConnectionFailure:
		return e.Kind == KindConnection
	case ErrUpstream:
		return e.Kind == KindUpstream
	case ErrMalformedResponse:
		return e.Kind == KindMalformed
	}
	return false
}

// IsGenerationFailure reports whether err came from a generation backend.
func IsGenerationFailure(err error) bool {
	return errors.Is(err, ErrConnectionFailure) ||
		errors.Is(err, ErrUpstream) ||
		errors.Is(err, ErrMalformedResponse)
}

func connectionError(backend string, err error) error {
	return &Error{Kind: KindConnection, Backend: backend, Err: err}
}

func upstreamError(backend string, status int, detail string) error {
	return &Error{Kind: KindUpstream, Backend: backend, StatusCode: status, Detail: detail}
}

func malformedError(backend, detail string, err error) error {
	return &Error{Kind: KindMalformed, Backend: backend, Detail: detail, Err: err}
}
