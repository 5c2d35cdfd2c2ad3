// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package memory provides an in-memory sessions database. Sessions do not
// survive process restarts; it is only suitable for development and tests.
package memory

import (
	"sync"
	"time"

	"github.com/homewired/pamauth/server/sessions"
)

var (
	_ sessions.DB = (*memory)(nil)
)

// memory implements the sessions.DB interface.
type memory struct {
	sync.Mutex

	sessionMaxAge int64 // In seconds

	// [sessionID]session
	sessions map[string]sessions.EncodedSession

	// [sessionID]createdAt
	createdAt map[string]int64
}

// New returns a new memory context that implements the sessions DB
// interface. The sessionMaxAge is the max age in seconds of a session.
func New(sessionMaxAge int64) *memory {
	return &memory{
		sessionMaxAge: sessionMaxAge,
		sessions:      make(map[string]sessions.EncodedSession),
		createdAt:     make(map[string]int64),
	}
}

// Save saves a session to the database.
//
// Save satisfies the sessions.DB interface.
func (m *memory) Save(sessionID string, s sessions.EncodedSession) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		m.createdAt[sessionID] = time.Now().Unix()
	}
	m.sessions[sessionID] = s

	return nil
}

// Del deletes a session from the database. An error is not returned if the
// session does not exist.
//
// Del satisfies the sessions.DB interface.
func (m *memory) Del(sessionID string) error {
	m.Lock()
	defer m.Unlock()

	delete(m.sessions, sessionID)
	delete(m.createdAt, sessionID)

	return nil
}

// Get gets a session from the database. An ErrNotFound error is returned
// if a session is not found for the session ID.
//
// Get satisfies the sessions.DB interface.
func (m *memory) Get(sessionID string) (*sessions.EncodedSession, error) {
	m.Lock()
	defer m.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, sessions.ErrNotFound
	}

	return &s, nil
}

// Cleanup deletes all expired sessions from the database.
//
// Cleanup satisfies the sessions.DB interface.
func (m *memory) Cleanup() error {
	m.Lock()
	defer m.Unlock()

	now := time.Now().Unix()
	for id, createdAt := range m.createdAt {
		if createdAt+m.sessionMaxAge <= now {
			delete(m.sessions, id)
			delete(m.createdAt, id)
		}
	}

	return nil
}
