// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pam

import (
	"context"

	"github.com/homewired/pamauth/host"
	v1 "github.com/homewired/pamauth/plugins/pam/v1"
)

// Reauthenticate restores an identity from remembered reauthentication
// data without invoking the credential verifier.
//
// The restored identity carries the remembered identifier, not a freshly
// assigned one, so a client keeps the same user ID across reconnects even
// if the stored record predates identifier tracking. The last login
// timestamp is not advanced; only password logins count as logins.
//
// This function satisfies the host AuthHandler interface.
func (p *plugin) Reauthenticate(ctx context.Context, data host.ReauthData) (*host.Identity, error) {
	log.Debugf("Reauthentication attempt for %q", data.Username)

	unlock := p.users.lock(data.Username)
	defer unlock()

	r, _, err := p.users.get(data.Username)
	if err != nil {
		return nil, err
	}
	if !r.Enabled {
		log.Infof("Reauthentication denied for disabled user %q",
			data.Username)
		return nil, userErr(v1.ErrCodeUserNotAllowed)
	}
	if r.ID == "" {
		// Backfill the record with the remembered identifier.
		r.ID = data.ID
		err = p.users.save(data.Username, *r)
		if err != nil {
			return nil, err
		}
	}

	name := r.Name
	if name == "" {
		name = data.Username
	}
	id := &host.Identity{
		UserID:   data.ID,
		Name:     name,
		Username: data.Username,
	}

	p.registry.add(id)

	log.Infof("User %v reauthenticated", id)

	return id, nil
}

// Disconnected removes the identity from the set of active identities.
//
// This function satisfies the host AuthHandler interface.
func (p *plugin) Disconnected(id *host.Identity, disconnected bool) {
	p.registry.del(id)

	if disconnected {
		log.Infof("User %v disconnected", id)
	} else {
		log.Infof("User %v superseded by a new login", id)
	}
}
