// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package host

import "context"

// Conn represents the host connection that a request arrived on.
//
// A connection holds at most one authenticated identity. The host binds the
// identity on a successful Authenticate or Reauthenticate call and releases
// it when the connection closes or is superseded.
type Conn interface {
	// User returns the identity that is authenticated on this connection,
	// or nil if the connection is unauthenticated.
	User() *Identity

	// RemoteAddr returns the remote address of the connection. May be
	// empty for in-process connections.
	RemoteAddr() string

	// EnableReauthentication asks the host to remember the provided
	// reauthentication data for this connection's client. How the data is
	// stored and protected is up to the host; the plugin treats the
	// mechanism as opaque.
	EnableReauthentication(ctx context.Context, data ReauthData) error
}

// ReauthData is the data that the host remembers on behalf of a client so
// that the identity can be restored without re-entering credentials.
type ReauthData struct {
	// ID is the user record identifier at the time the token was enabled.
	ID string `json:"id"`

	// Username is the login username.
	Username string `json:"username"`
}
