package client

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"
)

var (
	// ErrAuthRequired is returned for mutations without a session and for
	// calls the server rejected as unauthenticated.
	ErrAuthRequired = errors.New("sign in required")

	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput is returned when the server rejects a request's
	// arguments.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyExists is returned when registering a taken email.
	ErrAlreadyExists = errors.New("already exists")

	// ErrStreamClosed is returned when a change stream ends before it was
	// confirmed.
	ErrStreamClosed = errors.New("change stream closed")
)

// mapError converts a Connect error into a client sentinel, keeping the
// server's message.
func mapError(op string, err error) error {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	var sentinel error
	switch connectErr.Code() {
	case connect.CodeUnauthenticated:
		sentinel = ErrAuthRequired
	case connect.CodeNotFound:
		sentinel = ErrNotFound
	case connect.CodeInvalidArgument:
		sentinel = ErrInvalidInput
	case connect.CodeAlreadyExists:
		sentinel = ErrAlreadyExists
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return fmt.Errorf("failed to %s: %w: %s", op, sentinel, connectErr.Message())
}
