// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pam

import (
	"sync"

	"github.com/homewired/pamauth/host"
)

// registry tracks the identities of the connections that are currently
// authenticated through this plugin. Disconnect notifications carry the
// same identity pointer that was handed out during authentication, so
// identity pointers are used as the membership key.
type registry struct {
	mtx    sync.Mutex
	active map[*host.Identity]struct{}
}

func newRegistry() *registry {
	return &registry{
		active: make(map[*host.Identity]struct{}),
	}
}

func (r *registry) add(id *host.Identity) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.active[id] = struct{}{}
}

func (r *registry) del(id *host.Identity) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	delete(r.active, id)
}

func (r *registry) has(id *host.Identity) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	_, ok := r.active[id]
	return ok
}

func (r *registry) len() int {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return len(r.active)
}
