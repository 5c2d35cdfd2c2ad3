// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package memory

import (
	"testing"

	"github.com/homewired/pamauth/server/sessions"
)

func TestMemory(t *testing.T) {
	m := New(3600)

	var (
		sessionID = "test-session-id"
		session   = sessions.EncodedSession{
			Values: "encoded-values",
		}
	)

	// Get on a session that does not exist
	_, err := m.Get(sessionID)
	if err != sessions.ErrNotFound {
		t.Errorf("got err '%v', want '%v'", err, sessions.ErrNotFound)
	}

	// Save then Get
	err = m.Save(sessionID, session)
	if err != nil {
		t.Fatal(err)
	}
	es, err := m.Get(sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if es.Values != session.Values {
		t.Errorf("got values %q, want %q", es.Values, session.Values)
	}

	// Del is idempotent
	for i := 0; i < 2; i++ {
		err = m.Del(sessionID)
		if err != nil {
			t.Fatal(err)
		}
	}
	_, err = m.Get(sessionID)
	if err != sessions.ErrNotFound {
		t.Errorf("got err '%v', want '%v'", err, sessions.ErrNotFound)
	}
}

func TestCleanup(t *testing.T) {
	// A max age of 0 expires sessions immediately
	m := New(0)

	err := m.Save("expired-session", sessions.EncodedSession{})
	if err != nil {
		t.Fatal(err)
	}
	err = m.Cleanup()
	if err != nil {
		t.Fatal(err)
	}
	_, err = m.Get("expired-session")
	if err != sessions.ErrNotFound {
		t.Errorf("got err '%v', want '%v'", err, sessions.ErrNotFound)
	}
}
