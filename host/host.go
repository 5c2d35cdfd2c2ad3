// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package host

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/homewired/pamauth/store"
)

// Host represents the extension points of the home-automation host that a
// plugin can register handlers with. The production host provides its own
// implementation; this repo ships a development harness in the server
// package.
type Host interface {
	// RegisterAuthHandler registers an authentication handler under the
	// handler's protocol ID. A host runs at most one authentication handler
	// per protocol ID.
	RegisterAuthHandler(AuthHandler) error

	// RegisterUserManager registers a user management handler under the
	// handler's protocol ID.
	RegisterUserManager(UserManager) error

	// RegisterWebUI registers a static web UI bundle. The host serves the
	// bundle at its root path and loads the listed script entry points in
	// the admin interface.
	RegisterWebUI(WebUI) error
}

// AuthHandler is the authentication extension point. It is implemented by
// plugins and invoked by the host.
type AuthHandler interface {
	// ID returns the protocol ID that the handler is registered under.
	ID() string

	// Authenticate handles one login attempt. The payload is the JSON
	// encoded login request from the UI. On success the returned identity
	// is bound to the connection by the host.
	Authenticate(ctx context.Context, conn Conn, payload []byte) (*Identity, error)

	// Reauthenticate restores an identity from previously remembered
	// reauthentication data without re-checking credentials.
	Reauthenticate(ctx context.Context, data ReauthData) (*Identity, error)

	// Disconnected notifies the handler that a connection holding the
	// identity has closed (disconnected is true) or that the identity has
	// been superseded by a fresh authentication (disconnected is false).
	// The host ignores any outcome of this call.
	Disconnected(id *Identity, disconnected bool)
}

// UserManager is the user management extension point. Commands are
// dispatched by name; the set of command names is fixed by the handler's
// versioned API.
type UserManager interface {
	// ID returns the protocol ID that the handler is registered under.
	ID() string

	// Exec executes a user management command on behalf of the connection's
	// authenticated user.
	Exec(ctx context.Context, conn Conn, c Cmd) (*CmdReply, error)
}

// WebUI describes a static web UI bundle.
type WebUI struct {
	// ID is the protocol ID of the plugin that the bundle belongs to.
	ID string

	// Root contains the static assets. The host serves it at the bundle
	// root path.
	Root fs.FS

	// Scripts contains the script entry points, as paths relative to the
	// bundle root.
	Scripts []string
}

// Cmd is a user management command.
type Cmd struct {
	Version uint32 `json:"version"` // Handler API version
	Name    string `json:"name"`
	Payload string `json:"payload"` // JSON encoded
}

// String returns a string representation of the command.
func (c *Cmd) String() string {
	return fmt.Sprintf("%v-%v", c.Version, c.Name)
}

// CmdReply is the reply to a user management command.
type CmdReply struct {
	Payload string `json:"payload"` // JSON encoded
}

// Setting represents a configurable plugin setting provided by the host on
// plugin initialization.
type Setting struct {
	Name  string
	Value string
}

// PluginArgs contains the arguments that the host passes to a plugin on
// initialization.
type PluginArgs struct {
	Settings []Setting

	// DB is the namespaced key-value store that the host provisions for
	// the plugin installation.
	DB store.KV
}
