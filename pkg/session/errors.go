package session

import "errors"

var (
	// ErrInvalidTransition indicates an auth-state transition the table does
	// not allow; it signals a bug in the manager, not a user-facing failure
	ErrInvalidTransition = errors.New("session.invalid_transition")

	// ErrMissingHandle indicates an attempt to establish an authenticated
	// session without a user handle
	ErrMissingHandle = errors.New("session.missing_handle")

	// ErrClosed indicates the manager has been disposed
	ErrClosed = errors.New("session.closed")
)
