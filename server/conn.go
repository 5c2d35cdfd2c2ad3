// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/homewired/pamauth/host"
	v1 "github.com/homewired/pamauth/server/api/v1"
	"github.com/homewired/pamauth/util"
	"github.com/pkg/errors"
)

// Session value keys. A session contains a map that is used for
// application specific values.
const (
	// sessionValueCreatedAt contains the Unix timestamp of when the
	// session was created. It is used to verify that the session has not
	// expired.
	sessionValueCreatedAt = "created_at"

	// sessionValueReauth contains the JSON encoded host.ReauthData that a
	// plugin asked the host to remember. It is only present when the
	// client asked to be remembered on login.
	sessionValueReauth = "reauth"
)

// conn is the request-scoped connection context that is handed to the
// plugin handlers.
//
// conn implements the host.Conn interface.
type conn struct {
	r       *http.Request
	session *sessions.Session
	id      *host.Identity
}

var (
	_ host.Conn = (*conn)(nil)
)

// User returns the identity that is authenticated on this connection, or
// nil if the connection is unauthenticated.
//
// User satisfies the host.Conn interface.
func (c *conn) User() *host.Identity {
	return c.id
}

// RemoteAddr returns the remote address of the connection.
//
// RemoteAddr satisfies the host.Conn interface.
func (c *conn) RemoteAddr() string {
	return util.RemoteAddr(c.r)
}

// EnableReauthentication saves the reauthentication data to the session.
// The data is stored server side; the client only ever sees the encoded
// session ID.
//
// EnableReauthentication satisfies the host.Conn interface.
func (c *conn) EnableReauthentication(ctx context.Context, data host.ReauthData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return errors.WithStack(err)
	}
	c.session.Values[sessionValueReauth] = string(b)
	return nil
}

// extractConn extracts the session from the request cookie and returns the
// connection context for the request.
//
// If the session is not bound to an identity but carries remembered
// reauthentication data, the plugin's Reauthenticate is invoked and the
// restored identity is bound to the session. This is the development host's
// analog of a client reconnecting with a resume token.
func (s *Server) extractConn(r *http.Request) (*conn, *sessions.Session, error) {
	session, err := s.extractSession(r)
	if err != nil {
		return nil, nil, err
	}

	c := conn{
		r:       r,
		session: session,
		id:      s.identity(session.ID),
	}

	if c.id == nil && !session.IsNew {
		encoded, ok := session.Values[sessionValueReauth].(string)
		if ok {
			var data host.ReauthData
			err := json.Unmarshal([]byte(encoded), &data)
			if err != nil {
				return nil, nil, errors.WithStack(err)
			}
			id, err := s.auth.Reauthenticate(r.Context(), data)
			if err != nil {
				// Reauthentication failures are not fatal. The client
				// is simply treated as unauthenticated and must log in
				// again.
				log.Debugf("Reauthentication failed for %q: %v",
					data.Username, err)
				return &c, session, nil
			}
			if old := s.bindIdentity(session.ID, id); old != nil {
				s.auth.Disconnected(old, false)
			}
			c.id = id
		}
	}

	return &c, session, nil
}

// extractSession extracts the session from the request cookie. A new
// session is returned if the request does not contain a valid one.
func (s *Server) extractSession(r *http.Request) (*sessions.Session, error) {
	session, err := s.sessions.Get(r, v1.CookieSession)
	if err != nil {
		// Cookies that cannot be decoded are not fatal. The store
		// returns a fresh session alongside the error; the client is
		// treated as unauthenticated.
		log.Debugf("Session decode failed for %v: %v",
			util.RemoteAddr(r), err)
	}
	if !session.IsNew && sessionIsExpired(session) {
		// The session cleanup job has not gotten to this session yet.
		// Treat it as new.
		session.IsNew = true
		session.Values = make(map[interface{}]interface{})
	}
	return session, nil
}

func sessionIsExpired(session *sessions.Session) bool {
	createdAt, ok := session.Values[sessionValueCreatedAt].(int64)
	if !ok {
		return true
	}
	expiresAt := createdAt + int64(session.Options.MaxAge)
	return time.Now().Unix() > expiresAt
}
