// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when an entry is not found in the store.
	ErrNotFound = errors.New("entry not found")

	// ErrShutdown is returned when an action is attempted against a store
	// that is shutdown.
	ErrShutdown = errors.New("store is shutdown")
)

// KV represents the namespaced key-value store that the host provisions for
// a plugin installation. Keys are opaque to the store; this plugin keys user
// records by username.
//
// The store does not serialize read-modify-write sequences. Callers that
// load, mutate, and persist an entry must provide their own per-key
// serialization.
type KV interface {
	// Get returns the value for a key. An ErrNotFound error MUST be
	// returned if the key does not exist.
	Get(key string) ([]byte, error)

	// Put saves a key-value pair to the store, overwriting any existing
	// value for the key.
	Put(key string, value []byte) error

	// Del deletes a key from the store. An error is not returned if the
	// key does not exist.
	Del(key string) error

	// Keys returns all keys in the store. Ordering is store-defined but
	// MUST be stable across calls when the contents have not changed.
	Keys() ([]string, error)

	// Close releases the store resources.
	Close() error
}
