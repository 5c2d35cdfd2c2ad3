// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pam

import (
	"context"
	"testing"

	"github.com/homewired/pamauth/host"
	v1 "github.com/homewired/pamauth/plugins/pam/v1"
	"github.com/homewired/pamauth/store/memory"
	"github.com/homewired/pamauth/verify"
	"github.com/pkg/errors"
)

// errContrived is used to test error paths.
var errContrived = errors.New("contrived error")

// testPassword is the password that the mock verifier accepts.
const testPassword = "test-password"

// newTestPlugin returns a plugin that uses an in-memory store and a mock
// credential verifier that accepts testPassword.
func newTestPlugin(t *testing.T) (*plugin, *verify.Mock) {
	t.Helper()

	m := &verify.Mock{
		Password: testPassword,
	}
	s, err := newSettings(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &plugin{
		settings: s,
		verifier: m,
		users:    newUserDB(memory.New()),
		registry: newRegistry(),
	}, m
}

// testConn implements the host.Conn interface for tests. It records the
// reauthentication data that the plugin asks to be remembered.
type testConn struct {
	user       *host.Identity
	remoteAddr string

	reauth    []host.ReauthData
	reauthErr error
}

var (
	_ host.Conn = (*testConn)(nil)
)

func (c *testConn) User() *host.Identity {
	return c.user
}

func (c *testConn) RemoteAddr() string {
	return c.remoteAddr
}

func (c *testConn) EnableReauthentication(ctx context.Context, data host.ReauthData) error {
	if c.reauthErr != nil {
		return c.reauthErr
	}
	c.reauth = append(c.reauth, data)
	return nil
}

// seedUser writes a user record to the plugin's store.
func seedUser(t *testing.T, p *plugin, username string, r v1.UserRecord) {
	t.Helper()

	err := p.users.save(username, r)
	if err != nil {
		t.Fatal(err)
	}
}

// getUser reads a user record from the plugin's store. The returned bool
// indicates whether the record exists.
func getUser(t *testing.T, p *plugin, username string) (*v1.UserRecord, bool) {
	t.Helper()

	r, found, err := p.users.get(username)
	if err != nil {
		t.Fatal(err)
	}
	return r, found
}

// wantUserErr verifies that the error is a host.UserErr with the provided
// error code.
func wantUserErr(t *testing.T, err error, code v1.ErrCode) host.UserErr {
	t.Helper()

	ue, ok := err.(host.UserErr)
	if !ok {
		t.Fatalf("got err %v (%T), want UserErr with code %v",
			err, err, code)
	}
	if ue.Code != uint32(code) {
		t.Fatalf("got err code %v, want %v", ue.Code, code)
	}
	return ue
}
