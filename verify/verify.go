// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package verify wraps the operating system's pluggable authentication
// module facility. It is used as an opaque credential check; account and
// password management stay with the OS.
package verify

import "context"

// Verifier checks a username/password pair against an external
// authentication facility.
type Verifier interface {
	// Verify resolves if the credentials are valid and fails otherwise.
	// The failure reason is an opaque string from the facility and is
	// surfaced to the user unchanged.
	Verify(ctx context.Context, username, password string) error
}

// Opts contains configurable options for the PAM verifier.
type Opts struct {
	// Service is the PAM service name. Defaults to "login".
	Service string

	// RemoteHost is set as the PAM remote host item when provided, so
	// that PAM modules can log the origin of the attempt.
	RemoteHost string
}

// defaultService is the PAM service that is used when none is configured.
const defaultService = "login"

// New returns a Verifier backed by the OS PAM facility. On platforms
// without PAM support the returned verifier fails all attempts with a
// descriptive error.
func New(opts *Opts) Verifier {
	if opts == nil {
		opts = &Opts{}
	}
	if opts.Service == "" {
		opts.Service = defaultService
	}
	return newPAM(opts)
}
