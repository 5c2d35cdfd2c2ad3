// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pam

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	v1 "github.com/homewired/pamauth/plugins/pam/v1"
	"github.com/homewired/pamauth/store"
	"github.com/pkg/errors"
)

// userDB wraps the host-provisioned key-value store with the user record
// encoding and with per-username serialization.
//
// The store itself does not protect read-modify-write sequences, so two
// simultaneous logins for the same username could otherwise race on
// identifier assignment or the last login timestamp. Every record mutation
// must be performed while holding the username's lock.
type userDB struct {
	kv store.KV

	mtx   sync.Mutex
	locks map[string]*sync.Mutex // [username]
}

func newUserDB(kv store.KV) *userDB {
	return &userDB{
		kv:    kv,
		locks: make(map[string]*sync.Mutex),
	}
}

// lock acquires the lock for a username and returns the unlock function.
// Locks are never removed from the map; the set of usernames on a home
// installation is small.
func (d *userDB) lock(username string) func() {
	d.mtx.Lock()
	m, ok := d.locks[username]
	if !ok {
		m = &sync.Mutex{}
		d.locks[username] = m
	}
	d.mtx.Unlock()

	m.Lock()
	return m.Unlock
}

// get returns the user record for a username. The returned bool indicates
// whether a record exists; an empty record is returned when one does not.
func (d *userDB) get(username string) (*v1.UserRecord, bool, error) {
	b, err := d.kv.Get(username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &v1.UserRecord{}, false, nil
	case err != nil:
		return nil, false, err
	}

	var r v1.UserRecord
	err = json.Unmarshal(b, &r)
	if err != nil {
		return nil, false, errors.WithStack(err)
	}

	return &r, true, nil
}

// save persists the user record for a username.
func (d *userDB) save(username string, r v1.UserRecord) error {
	b, err := json.Marshal(r)
	if err != nil {
		return errors.WithStack(err)
	}
	return d.kv.Put(username, b)
}

// keys returns all known usernames in the store's key ordering.
func (d *userDB) keys() ([]string, error) {
	return d.kv.Keys()
}

// ensureID assigns a new globally-unique identifier to the record if it
// does not have one yet and reports whether an assignment was made. This is
// the only place that identifiers are allocated; the login,
// reauthentication, and user listing paths all backfill identifiers through
// this method. The caller is responsible for persisting the record.
//
// An identifier, once assigned, is never changed.
func (d *userDB) ensureID(r *v1.UserRecord) bool {
	if r.ID != "" {
		return false
	}
	r.ID = uuid.New().String()
	return true
}
