// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"
)

// TestKV runs through a series of KV operations to verify that basic
// functionality of the KV implementation is working correctly.
//
// These are not unit tests. They are intended to be run against an actual
// store by the backend test packages.
func TestKV(kv KV) error {
	var (
		key1 = "testops-key-1"
		key2 = "testops-key-2"

		value1 = []byte("value-1")
		value2 = []byte("value-2")
	)

	// Clear out any previous test data
	err := kv.Del(key1)
	if err != nil {
		return err
	}
	err = kv.Del(key2)
	if err != nil {
		return err
	}

	// Verify that the entry doesn't exist
	_, err = kv.Get(key1)
	if !errors.Is(err, ErrNotFound) {
		return errors.Errorf("got error %v, want %v", err, ErrNotFound)
	}

	// Insert an entry
	err = kv.Put(key1, value1)
	if err != nil {
		return err
	}

	// Verify that the entry exists
	b, err := kv.Get(key1)
	if err != nil {
		return err
	}
	if !bytes.Equal(b, value1) {
		return errors.Errorf("got %s, want %s", b, value1)
	}

	// Overwrite the entry
	err = kv.Put(key1, value2)
	if err != nil {
		return err
	}
	b, err = kv.Get(key1)
	if err != nil {
		return err
	}
	if !bytes.Equal(b, value2) {
		return errors.Errorf("got %s, want %s", b, value2)
	}

	// Verify that both keys show up in the key set
	err = kv.Put(key2, value1)
	if err != nil {
		return err
	}
	keys, err := kv.Keys()
	if err != nil {
		return err
	}
	found := make(map[string]bool, len(keys))
	for _, v := range keys {
		found[v] = true
	}
	if !found[key1] || !found[key2] {
		return errors.Errorf("key set %v missing test keys", keys)
	}

	// Verify that the key ordering is stable
	keys2, err := kv.Keys()
	if err != nil {
		return err
	}
	if !sort.StringsAreSorted(keys) && !stringSlicesEqual(keys, keys2) {
		return errors.Errorf("key ordering is not stable: %v then %v",
			keys, keys2)
	}

	// Delete the entries
	err = kv.Del(key1)
	if err != nil {
		return err
	}
	err = kv.Del(key2)
	if err != nil {
		return err
	}

	// Verify that the entries were deleted
	_, err = kv.Get(key1)
	if !errors.Is(err, ErrNotFound) {
		return errors.Errorf("got error %v, want %v", err, ErrNotFound)
	}

	// Deleting a key that doesn't exist should not error
	err = kv.Del(key1)
	if err != nil {
		return err
	}

	return nil
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
