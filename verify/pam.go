// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build linux && cgo

package verify

import (
	"context"
	"fmt"

	"github.com/msteinert/pam/v2"
)

// pamVerifier implements the Verifier interface using the host's PAM
// stack.
type pamVerifier struct {
	service    string
	remoteHost string
}

var (
	_ Verifier = (*pamVerifier)(nil)
)

func newPAM(opts *Opts) Verifier {
	return &pamVerifier{
		service:    opts.Service,
		remoteHost: opts.RemoteHost,
	}
}

// Verify runs one PAM authentication conversation for the provided
// credentials. The password is supplied in response to the echo-off prompt;
// informational and error messages from PAM modules are discarded.
//
// This function satisfies the Verifier interface.
func (p *pamVerifier) Verify(ctx context.Context, username, password string) error {
	t, err := pam.StartFunc(p.service, username,
		func(s pam.Style, msg string) (string, error) {
			switch s {
			case pam.PromptEchoOff:
				return password, nil
			case pam.PromptEchoOn, pam.ErrorMsg, pam.TextInfo:
				return "", nil
			default:
				return "", fmt.Errorf("unsupported conversation style: %v", s)
			}
		})
	if err != nil {
		return fmt.Errorf("pam start: %v", err)
	}
	defer t.End()

	if p.remoteHost != "" {
		err = t.SetItem(pam.Rhost, p.remoteHost)
		if err != nil {
			return fmt.Errorf("pam set rhost: %v", err)
		}
	}

	err = t.Authenticate(0)
	if err != nil {
		return err
	}

	// Verify that the account is valid. This catches expired accounts
	// that still have valid credentials.
	err = t.AcctMgmt(0)
	if err != nil {
		return err
	}

	return nil
}
