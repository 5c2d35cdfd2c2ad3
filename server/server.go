// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package server implements a development host for authentication plugins. It
serves the plugin's web UI bundle, exposes the login, logout, and user
management routes over HTTPS, and persists client sessions so that
reauthentication can be exercised across restarts.

It implements the host extension points that a production home-automation
host would provide. It is not the production host.
*/
package server

import (
	"context"
	"crypto/elliptic"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/homewired/pamauth/host"
	v1 "github.com/homewired/pamauth/server/api/v1"
	sn "github.com/homewired/pamauth/server/sessions"
	"github.com/homewired/pamauth/util"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

// sessionCleanupSchedule is the cron schedule that expired sessions are
// deleted from the sessions database on.
const sessionCleanupSchedule = "@hourly"

// Server is the development host.
//
// Server implements the host.Host interface.
type Server struct {
	cfg       *Config
	server    *http.Server
	router    *mux.Router // Parent router
	protected *mux.Router // CSRF protected subrouter
	sessions  sessions.Store
	sndb      sn.DB
	cron      *cron.Cron

	// Registered plugin handlers. The development host runs a single
	// authentication plugin.
	auth host.AuthHandler
	mgr  host.UserManager

	// active contains the identity that is bound to each session,
	// keyed by session ID. This is the in-process analog of the
	// production host's per-connection identity. Entries are added on
	// login and reauthentication and removed on logout.
	mtx    sync.Mutex
	active map[string]*host.Identity
}

var (
	_ host.Host = (*Server)(nil)
)

// New returns a new Server. The provided sessions database is used to
// persist client sessions.
func New(cfg *Config, sndb sn.DB) (*Server, error) {
	err := verifyConfig(cfg)
	if err != nil {
		return nil, err
	}
	err = generateHTTPSCertPair(cfg.HTTPSCert, cfg.HTTPSKey)
	if err != nil {
		return nil, err
	}
	csrfKey, err := loadKey(cfg.CSRFKey, "CSRF")
	if err != nil {
		return nil, err
	}
	sessionKey, err := loadKey(cfg.SessionKey, "session")
	if err != nil {
		return nil, err
	}

	// Setup the router
	router, protected := NewRouter(cfg.ReqBodySizeLimit, csrfKey,
		cfg.CSRFMaxAge)

	// Setup the sessions store
	opts := sn.NewOptions(int(cfg.SessionMaxAge))
	ss := sn.NewStore(sndb, opts, sessionKey)

	// Setup the server
	s := Server{
		cfg:       cfg,
		router:    router,
		protected: protected,
		sessions:  ss,
		sndb:      sndb,
		cron:      cron.New(),
		active:    make(map[string]*host.Identity),
	}

	s.setupRoutes()

	// Periodically clean up expired sessions. The gorilla/sessions
	// Store does not do this automatically.
	err = s.cron.AddFunc(sessionCleanupSchedule, func() {
		err := s.sndb.Cleanup()
		if err != nil {
			log.Errorf("Session cleanup: %v", err)
		}
	})
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// RegisterAuthHandler registers the authentication handler.
//
// RegisterAuthHandler satisfies the host.Host interface.
func (s *Server) RegisterAuthHandler(h host.AuthHandler) error {
	if s.auth != nil {
		return errors.Errorf("auth handler %v already registered",
			s.auth.ID())
	}
	s.auth = h

	log.Infof("Auth handler registered: %v", h.ID())

	return nil
}

// RegisterUserManager registers the user management handler.
//
// RegisterUserManager satisfies the host.Host interface.
func (s *Server) RegisterUserManager(m host.UserManager) error {
	if s.mgr != nil {
		return errors.Errorf("user manager %v already registered",
			s.mgr.ID())
	}
	s.mgr = m

	log.Infof("User manager registered: %v", m.ID())

	return nil
}

// RegisterWebUI registers a static web UI bundle and mounts it on the
// router.
//
// RegisterWebUI satisfies the host.Host interface.
func (s *Server) RegisterWebUI(ui host.WebUI) error {
	prefix := fmt.Sprintf("/ui/%v/", ui.ID)
	s.router.PathPrefix(prefix).Handler(
		http.StripPrefix(prefix, http.FileServer(http.FS(ui.Root))))

	log.Infof("Web UI registered: %v %v", ui.ID, ui.Scripts)

	return nil
}

// ListenAndServeTLS starts the server. Errors from the listener are sent
// on listenC.
func (s *Server) ListenAndServeTLS(listenC chan error) {
	if s.auth == nil || s.mgr == nil {
		listenC <- errors.Errorf("no plugin registered")
		return
	}

	s.cron.Start()

	// The http server is assigned before the listener goroutine is
	// spawned so that a Shutdown racing the startup always sees it.
	s.server = &http.Server{
		Handler:      s.router,
		Addr:         s.cfg.Listen,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		TLSNextProto: make(map[string]func(*http.Server,
			*tls.Conn, http.Handler)),
	}

	go func() {
		log.Infof("Listen: %v", s.cfg.Listen)
		listenC <- s.server.ListenAndServeTLS(s.cfg.HTTPSCert,
			s.cfg.HTTPSKey)
	}()
}

// Shutdown gracefully shuts down the server without interrupting any
// active connections.
func (s *Server) Shutdown() {
	s.cron.Stop()

	if s.server == nil {
		// The server never started listening.
		return
	}
	err := s.server.Shutdown(context.Background())
	if err != nil {
		log.Errorf("Shutdown: %v", err)
	}
}

// setupRoutes sets up the v1 API routes.
func (s *Server) setupRoutes() {
	// The version route sets the CSRF header token and thus needs to be
	// part of the CSRF protected router so that the cookie CSRF is set
	// too. The CSRF cookie is set on all protected routes. The header
	// token is only set on the version route.
	addRoute(s.protected, http.MethodGet, v1.APIVersionPrefix,
		v1.VersionRoute, s.handleVersion)

	// CSRF protected routes
	addRoute(s.protected, http.MethodPost, v1.APIVersionPrefix,
		v1.LoginRoute, s.handleLogin)
	addRoute(s.protected, http.MethodPost, v1.APIVersionPrefix,
		v1.LogoutRoute, s.handleLogout)
	addRoute(s.protected, http.MethodPost, v1.APIVersionPrefix,
		v1.CmdRoute, s.handleCmd)
}

// addRoute adds a route to the provided router.
func addRoute(router *mux.Router, method string, routePrefix, route string, handler http.HandlerFunc) {
	router.HandleFunc(routePrefix+route, handler).Methods(method)
}

// bindIdentity binds an identity to a session. The replaced identity is
// returned if the session already had one bound; the caller is responsible
// for notifying the plugin that it was superseded.
func (s *Server) bindIdentity(sessionID string, id *host.Identity) *host.Identity {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	old := s.active[sessionID]
	s.active[sessionID] = id
	return old
}

// identity returns the identity that is bound to a session, or nil.
func (s *Server) identity(sessionID string) *host.Identity {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.active[sessionID]
}

// unbindIdentity removes and returns the identity that is bound to a
// session, or nil.
func (s *Server) unbindIdentity(sessionID string) *host.Identity {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	id := s.active[sessionID]
	delete(s.active, sessionID)
	return id
}

// generateHTTPSCertPair generates an HTTPS cert and key if they don't
// already exist.
func generateHTTPSCertPair(httpsCert, httpsKey string) error {
	switch {
	case util.FileExists(httpsCert) && util.FileExists(httpsKey):
		// The cert and key already exist. Nothing to do.
		return nil

	case !util.FileExists(httpsCert) && util.FileExists(httpsKey):
		// The key exists, but the cert doesn't exist
		return errors.Errorf("https key exists (%v) but the cert "+
			"doesn't (%v)", httpsKey, httpsCert)

	case util.FileExists(httpsCert) && !util.FileExists(httpsKey):
		// The cert exists, but the key doesn't exist
		return errors.Errorf("https cert exists (%v) but the key "+
			"doesn't (%v)", httpsCert, httpsKey)
	}

	// A HTTPS cert pair does not exist. Generate one.
	err := util.GenCertPair(elliptic.P256(), "pamauth",
		httpsCert, httpsKey)
	if err != nil {
		return errors.Errorf("gen cert pair failed: %v", err)
	}

	return nil
}

// loadKey loads a 32 byte key from disk. If the key file does not exist, a
// new key is created and saved to disk.
func loadKey(keyFile, name string) ([]byte, error) {
	const keyLength = 32 // In bytes

	key, err := os.ReadFile(keyFile)
	if err != nil {
		log.Infof("%v key not found; generating one", name)
		key, err = util.Random(keyLength)
		if err != nil {
			return nil, err
		}
		err = os.WriteFile(keyFile, key, 0400)
		if err != nil {
			return nil, err
		}
		log.Infof("%v key saved to %v", name, keyFile)
	}

	if len(key) != keyLength {
		return nil, errors.Errorf("%v key is corrupt", name)
	}

	return key, nil
}
