// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package host

import "fmt"

// Identity represents a successfully authenticated user for the lifetime of
// a connection. Identities are runtime state only and are never persisted.
type Identity struct {
	// UserID is the user record identifier.
	UserID string

	// Name is the display name. Falls back to the login username when the
	// user record does not carry a display name.
	Name string

	// Username is the login username that the identity was authenticated
	// with.
	Username string
}

// String returns a string representation of the identity.
func (id *Identity) String() string {
	return fmt.Sprintf("%v %v", id.UserID, id.Username)
}
