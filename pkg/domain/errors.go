package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrCorruptState is returned when a stored record exists but cannot be trusted
// (unparsable, digest mismatch or schema violation).
var ErrCorruptState = errors.New("corrupt session state")

// ErrNoActiveLoop is returned when no autonomous loop is currently named by the control file.
var ErrNoActiveLoop = errors.New("no active loop")

// ErrEmptyKey is returned when a store is addressed with an empty session or loop ID.
var ErrEmptyKey = errors.New("key cannot be empty")
