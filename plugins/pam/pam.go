// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pam implements a home-automation host plugin that delegates user
// authentication to the operating system's pluggable authentication
// modules and exposes a small user management protocol for an
// administrative UI.
package pam

import (
	"github.com/homewired/pamauth/host"
	v1 "github.com/homewired/pamauth/plugins/pam/v1"
	"github.com/homewired/pamauth/ui"
	"github.com/homewired/pamauth/verify"
)

var (
	_ host.AuthHandler = (*plugin)(nil)
	_ host.UserManager = (*plugin)(nil)
)

// plugin is the PAM authentication plugin.
type plugin struct {
	settings *settings
	verifier verify.Verifier
	users    *userDB
	registry *registry
}

// New returns a new PAM plugin initialized with the host-provided settings
// and key-value store.
func New(args host.PluginArgs) (*plugin, error) {
	s, err := newSettings(args.Settings)
	if err != nil {
		return nil, err
	}
	return &plugin{
		settings: s,
		verifier: verify.New(&verify.Opts{
			Service:    s.Service,
			RemoteHost: s.RemoteHost,
		}),
		users:    newUserDB(args.DB),
		registry: newRegistry(),
	}, nil
}

// ID returns the protocol ID that the plugin registers under.
//
// This function satisfies both the host AuthHandler and the host
// UserManager interfaces.
func (p *plugin) ID() string {
	return v1.ID
}

// Register registers the plugin's authentication handler, user management
// handler, and web UI bundle with the host.
func (p *plugin) Register(h host.Host) error {
	err := h.RegisterAuthHandler(p)
	if err != nil {
		return err
	}
	err = h.RegisterUserManager(p)
	if err != nil {
		return err
	}
	return h.RegisterWebUI(host.WebUI{
		ID:      v1.ID,
		Root:    ui.Assets(),
		Scripts: []string{ui.Script},
	})
}

// userErr returns the UserErr for an error code, using the code's fixed
// user-facing message.
func userErr(code v1.ErrCode) host.UserErr {
	return host.UserErr{
		Code:    uint32(code),
		Message: v1.ErrCodes[code],
	}
}
