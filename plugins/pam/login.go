// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pam

import (
	"context"
	"encoding/json"
	"time"

	"github.com/homewired/pamauth/host"
	v1 "github.com/homewired/pamauth/plugins/pam/v1"
)

// timeNow is overridden in tests.
var timeNow = time.Now

// Authenticate handles one login attempt.
//
// Input validation failures are returned as a v1.ValidationErr before the
// credential verifier is invoked. Verifier failures are returned to the
// user with the verifier's message verbatim; the plugin does not interpret
// them. The user record is updated with the login timestamp, and an
// identifier if it does not have one yet, before the enabled flag is
// checked, so a disabled user's attempt is still recorded.
//
// This function satisfies the host AuthHandler interface.
func (p *plugin) Authenticate(ctx context.Context, conn host.Conn, payload []byte) (*host.Identity, error) {
	var l v1.Login
	err := json.Unmarshal(payload, &l)
	if err != nil {
		return nil, userErr(v1.ErrCodeInvalidPayload)
	}

	log.Debugf("Login attempt for %q from %v", l.Username, conn.RemoteAddr())

	// Validate the input before touching the OS authentication facility.
	// Both fields are reported at once so the UI can highlight them
	// together.
	var ve v1.ValidationErr
	if l.Username == "" {
		ve.Username = v1.ErrMsgUsernameMissing
	}
	if l.Password == "" {
		ve.Password = v1.ErrMsgPasswordMissing
	}
	if ve.Username != "" || ve.Password != "" {
		return nil, ve
	}

	// Verify the credentials. The failure reason is opaque to the plugin
	// and is passed through to the user unchanged.
	err = p.verifier.Verify(ctx, l.Username, l.Password)
	if err != nil {
		log.Debugf("Login failed for %q: %v", l.Username, err)
		return nil, host.UserErr{
			Code:    uint32(v1.ErrCodeInvalidCredentials),
			Message: err.Error(),
		}
	}

	// Record the login. This happens under the username lock and before
	// the enabled gate so that concurrent logins cannot race on
	// identifier assignment and so that disabled users leave a trace.
	unlock := p.users.lock(l.Username)
	r, _, err := p.users.get(l.Username)
	if err != nil {
		unlock()
		return nil, err
	}
	p.users.ensureID(r)
	now := timeNow().UnixMilli()
	if now <= r.LastLogin {
		// Clock went backwards. Keep the timestamp moving forward so the
		// record always reflects the most recent login.
		now = r.LastLogin + 1
	}
	r.LastLogin = now
	err = p.users.save(l.Username, *r)
	unlock()
	if err != nil {
		return nil, err
	}

	if !r.Enabled {
		log.Infof("Login denied for disabled user %q", l.Username)
		return nil, userErr(v1.ErrCodeUserNotAllowed)
	}

	name := r.Name
	if name == "" {
		name = l.Username
	}
	id := &host.Identity{
		UserID:   r.ID,
		Name:     name,
		Username: l.Username,
	}

	if l.Remember {
		// The user asked to be remembered. If the host cannot honor that
		// the whole attempt fails; completing the login anyway would
		// silently hand the user a session that does not survive a
		// reconnect.
		err = conn.EnableReauthentication(ctx, host.ReauthData{
			ID:       r.ID,
			Username: l.Username,
		})
		if err != nil {
			log.Errorf("Failed to enable reauthentication for %v: %v",
				id, err)
			return nil, err
		}
	}

	p.registry.add(id)

	log.Infof("User %v logged in", id)

	return id, nil
}
