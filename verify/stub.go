// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build !linux || !cgo

package verify

import (
	"context"

	"github.com/pkg/errors"
)

// stubVerifier fails every attempt. It is compiled in on platforms where
// the PAM binding is not available.
type stubVerifier struct{}

var (
	_ Verifier = (*stubVerifier)(nil)
)

func newPAM(opts *Opts) Verifier {
	return stubVerifier{}
}

// Verify fails unconditionally.
//
// This function satisfies the Verifier interface.
func (stubVerifier) Verify(ctx context.Context, username, password string) error {
	return errors.Errorf("PAM authentication is not supported on this platform")
}
