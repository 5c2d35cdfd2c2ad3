// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/homewired/pamauth/host"
	"github.com/robfig/cron"
)

// testAuthHandler is a no-op authentication handler.
type testAuthHandler struct{}

func (h *testAuthHandler) ID() string { return "test" }

func (h *testAuthHandler) Authenticate(ctx context.Context, conn host.Conn, payload []byte) (*host.Identity, error) {
	return nil, nil
}

func (h *testAuthHandler) Reauthenticate(ctx context.Context, data host.ReauthData) (*host.Identity, error) {
	return nil, nil
}

func (h *testAuthHandler) Disconnected(id *host.Identity, disconnected bool) {}

// testUserManager is a no-op user management handler.
type testUserManager struct{}

func (m *testUserManager) ID() string { return "test" }

func (m *testUserManager) Exec(ctx context.Context, conn host.Conn, c host.Cmd) (*host.CmdReply, error) {
	return nil, nil
}

func TestShutdownBeforeListen(t *testing.T) {
	// Shutting down a server that never started listening must be a
	// no-op, not a panic. This happens when startup fails before the
	// listener is up, e.g. when no plugin was registered.
	s := &Server{
		cfg:    &Config{},
		router: mux.NewRouter(),
		cron:   cron.New(),
		active: make(map[string]*host.Identity),
	}

	listenC := make(chan error, 1)
	s.ListenAndServeTLS(listenC)
	if err := <-listenC; err == nil {
		t.Error("listen succeeded without a registered plugin")
	}

	s.Shutdown()
}

func TestShutdownRacesListen(t *testing.T) {
	// A shutdown signal can arrive the instant the listener is started.
	// The http server must be in place before ListenAndServeTLS returns
	// so that the racing Shutdown does not observe a nil server.
	dir := t.TempDir()
	s := &Server{
		cfg: &Config{
			Listen: "localhost:0",
			// The cert pair does not exist. The listener goroutine
			// fails on startup, which stands in for a listener that
			// has not accepted yet.
			HTTPSCert: filepath.Join(dir, "nonexistent.cert"),
			HTTPSKey:  filepath.Join(dir, "nonexistent.key"),
		},
		router: mux.NewRouter(),
		cron:   cron.New(),
		auth:   &testAuthHandler{},
		mgr:    &testUserManager{},
		active: make(map[string]*host.Identity),
	}

	listenC := make(chan error, 1)
	s.ListenAndServeTLS(listenC)

	if s.server == nil {
		t.Fatal("http server not assigned on ListenAndServeTLS return")
	}

	s.Shutdown()

	if err := <-listenC; err == nil {
		t.Error("listen succeeded without a cert pair")
	}
}
