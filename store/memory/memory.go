// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package memory

import (
	"sort"
	"sync"

	"github.com/homewired/pamauth/store"
)

var (
	_ store.KV = (*memory)(nil)
)

// memory implements the store KV interface in memory. It exists for tests
// and for running the development harness without any external services.
// Contents are lost on shutdown.
type memory struct {
	sync.Mutex
	blobs    map[string][]byte
	shutdown bool
}

// New returns a new memory store.
func New() *memory {
	return &memory{
		blobs: make(map[string][]byte),
	}
}

// Get returns the value for a key.
//
// This function satisfies the store KV interface.
func (m *memory) Get(key string) ([]byte, error) {
	m.Lock()
	defer m.Unlock()

	if m.shutdown {
		return nil, store.ErrShutdown
	}
	b, ok := m.blobs[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c, nil
}

// Put saves a key-value pair to the store.
//
// This function satisfies the store KV interface.
func (m *memory) Put(key string, value []byte) error {
	m.Lock()
	defer m.Unlock()

	if m.shutdown {
		return store.ErrShutdown
	}
	c := make([]byte, len(value))
	copy(c, value)
	m.blobs[key] = c
	return nil
}

// Del deletes a key from the store.
//
// This function satisfies the store KV interface.
func (m *memory) Del(key string) error {
	m.Lock()
	defer m.Unlock()

	if m.shutdown {
		return store.ErrShutdown
	}
	delete(m.blobs, key)
	return nil
}

// Keys returns all keys in the store, sorted lexicographically.
//
// This function satisfies the store KV interface.
func (m *memory) Keys() ([]string, error) {
	m.Lock()
	defer m.Unlock()

	if m.shutdown {
		return nil, store.ErrShutdown
	}
	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close shuts down the store.
//
// This function satisfies the store KV interface.
func (m *memory) Close() error {
	m.Lock()
	defer m.Unlock()

	m.shutdown = true
	m.blobs = nil
	return nil
}
