package model

import (
	"errors"
	"fmt"
)

var (
	// ErrProfileNotFound is returned for an id with no configured profile.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNotConnected is returned when an operation needs a live session.
	ErrNotConnected = errors.New("server not connected")

	// ErrConnectInFlight rejects a second concurrent connect for one profile.
	ErrConnectInFlight = errors.New("connect already in progress")

	// ErrCorruptCredential marks a stored password that this installation's
	// key cannot authenticate. Callers fall back to treating the stored value
	// as plaintext rather than failing the connect.
	ErrCorruptCredential = errors.New("credential cannot be decrypted")

	// ErrMonitorActive is returned when a monitor stream is already running.
	ErrMonitorActive = errors.New("monitor already active")

	// ErrMonitorInactive is returned for stop on a session with no stream.
	ErrMonitorInactive = errors.New("monitor not active")
)

// TypeMismatchError reports a typed read against the wrong container kind.
type TypeMismatchError struct {
	Key  string
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("key %q holds %s, not %s", e.Key, e.Got, e.Want)
}
