// Package storage holds the client-local key-value stores the session is
// persisted in.
package storage

import "errors"

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: closed")

// KV is a small durable key-value store. SetAll and DeleteAll apply every key
// or none of them.
type KV interface {
	// Get returns the values found for keys. Missing keys are absent from the
	// result; that is not an error.
	Get(keys ...string) (map[string][]byte, error)
	SetAll(values map[string][]byte) error
	DeleteAll(keys ...string) error
	Close() error
}
