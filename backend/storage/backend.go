package storage

import "errors"

// ErrNotFound indicates the storage slot holds no value for the key.
// Callers use this to differentiate a legitimate first visit from a
// corrupted or unreadable payload.
var ErrNotFound = errors.New("storage: key not found")

// Backend is the key-value slot the progress store persists into.
// Implementations must treat a missing key as ErrNotFound on Get and as a
// successful no-op on Remove.
type Backend interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}
