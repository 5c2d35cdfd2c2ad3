// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verify

import (
	"context"

	"github.com/pkg/errors"
)

// Mock is a Verifier for use in tests. It records the number of Verify
// invocations and resolves or fails based on the configured password.
type Mock struct {
	// Password is the password that Verify accepts. All other passwords
	// fail with Err.
	Password string

	// Err is the error returned for failed attempts. Defaults to a
	// generic authentication failure.
	Err error

	// Calls is the number of times Verify has been invoked.
	Calls int
}

var (
	_ Verifier = (*Mock)(nil)
)

// Verify resolves when the provided password matches the configured one.
//
// This function satisfies the Verifier interface.
func (m *Mock) Verify(ctx context.Context, username, password string) error {
	m.Calls++
	if password == m.Password {
		return nil
	}
	if m.Err != nil {
		return m.Err
	}
	return errors.Errorf("Authentication failure")
}
