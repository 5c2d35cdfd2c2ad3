// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pam

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	v1 "github.com/homewired/pamauth/plugins/pam/v1"
	"github.com/homewired/pamauth/unittest"
)

func loginPayload(t *testing.T, l v1.Login) []byte {
	t.Helper()

	b, err := json.Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestAuthenticateValidation(t *testing.T) {
	var tests = []struct {
		name  string
		login v1.Login
		want  v1.ValidationErr
	}{
		{
			"username missing",
			v1.Login{
				Password: testPassword,
			},
			v1.ValidationErr{
				Username: v1.ErrMsgUsernameMissing,
			},
		},
		{
			"password missing",
			v1.Login{
				Username: "alice",
			},
			v1.ValidationErr{
				Password: v1.ErrMsgPasswordMissing,
			},
		},
		{
			"both missing",
			v1.Login{},
			v1.ValidationErr{
				Username: v1.ErrMsgUsernameMissing,
				Password: v1.ErrMsgPasswordMissing,
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, m := newTestPlugin(t)
			c := &testConn{}

			_, err := p.Authenticate(context.Background(), c,
				loginPayload(t, tc.login))

			ve, ok := err.(v1.ValidationErr)
			if !ok {
				t.Fatalf("got err %v (%T), want ValidationErr", err, err)
			}
			diff := unittest.DeepEqual(ve, tc.want)
			if diff != "" {
				t.Error(diff)
			}

			// The credential verifier must not be invoked when the
			// input fails validation.
			if m.Calls != 0 {
				t.Errorf("verifier invoked %v times, want 0", m.Calls)
			}
		})
	}
}

func TestAuthenticateInvalidPayload(t *testing.T) {
	p, m := newTestPlugin(t)
	c := &testConn{}

	_, err := p.Authenticate(context.Background(), c,
		[]byte("not json"))
	wantUserErr(t, err, v1.ErrCodeInvalidPayload)

	if m.Calls != 0 {
		t.Errorf("verifier invoked %v times, want 0", m.Calls)
	}
}

func TestAuthenticateBadCredentials(t *testing.T) {
	p, _ := newTestPlugin(t)
	c := &testConn{}

	_, err := p.Authenticate(context.Background(), c,
		loginPayload(t, v1.Login{
			Username: "alice",
			Password: "wrong",
		}))

	// The verifier's failure reason is passed through verbatim.
	ue := wantUserErr(t, err, v1.ErrCodeInvalidCredentials)
	if ue.Message != "Authentication failure" {
		t.Errorf("got message %q, want %q", ue.Message,
			"Authentication failure")
	}

	// Failed credential checks must not leave a user record behind.
	if _, found := getUser(t, p, "alice"); found {
		t.Error("user record written for failed credential check")
	}
}

func TestAuthenticateDisabled(t *testing.T) {
	p, _ := newTestPlugin(t)
	c := &testConn{}

	// A user that has never logged in before has no record, which means
	// the user is disabled by default.
	_, err := p.Authenticate(context.Background(), c,
		loginPayload(t, v1.Login{
			Username: "alice",
			Password: testPassword,
		}))
	wantUserErr(t, err, v1.ErrCodeUserNotAllowed)

	// The attempt must still be recorded. The record is assigned an ID
	// and a last login timestamp even though access was denied.
	r, found := getUser(t, p, "alice")
	if !found {
		t.Fatal("user record not written for disabled user")
	}
	if r.ID == "" {
		t.Error("user record not assigned an ID")
	}
	if r.LastLogin == 0 {
		t.Error("last login not recorded")
	}
	if r.Enabled {
		t.Error("user record enabled")
	}

	// The identity must not be registered as active.
	if p.registry.len() != 0 {
		t.Errorf("registry has %v identities, want 0", p.registry.len())
	}
}

func TestAuthenticate(t *testing.T) {
	p, _ := newTestPlugin(t)
	c := &testConn{}

	seedUser(t, p, "alice", v1.UserRecord{
		Name:    "Alice",
		Enabled: true,
	})

	id, err := p.Authenticate(context.Background(), c,
		loginPayload(t, v1.Login{
			Username: "alice",
			Password: testPassword,
		}))
	if err != nil {
		t.Fatal(err)
	}

	if id.UserID == "" {
		t.Error("identity has no user ID")
	}
	if id.Name != "Alice" {
		t.Errorf("got name %q, want %q", id.Name, "Alice")
	}
	if id.Username != "alice" {
		t.Errorf("got username %q, want %q", id.Username, "alice")
	}

	// The record must be updated with the assigned ID and login time.
	r, _ := getUser(t, p, "alice")
	if r.ID != id.UserID {
		t.Errorf("got record ID %q, want %q", r.ID, id.UserID)
	}
	if r.LastLogin == 0 {
		t.Error("last login not recorded")
	}

	// The identity must be registered as active.
	if !p.registry.has(id) {
		t.Error("identity not registered")
	}

	// Reauthentication was not requested.
	if len(c.reauth) != 0 {
		t.Errorf("reauthentication enabled %v times, want 0",
			len(c.reauth))
	}
}

func TestAuthenticateNameFallsBackToUsername(t *testing.T) {
	p, _ := newTestPlugin(t)
	c := &testConn{}

	seedUser(t, p, "alice", v1.UserRecord{
		Enabled: true,
	})

	id, err := p.Authenticate(context.Background(), c,
		loginPayload(t, v1.Login{
			Username: "alice",
			Password: testPassword,
		}))
	if err != nil {
		t.Fatal(err)
	}
	if id.Name != "alice" {
		t.Errorf("got name %q, want %q", id.Name, "alice")
	}
}

func TestAuthenticateRemember(t *testing.T) {
	p, _ := newTestPlugin(t)
	c := &testConn{}

	seedUser(t, p, "alice", v1.UserRecord{
		Enabled: true,
	})

	id, err := p.Authenticate(context.Background(), c,
		loginPayload(t, v1.Login{
			Username: "alice",
			Password: testPassword,
			Remember: true,
		}))
	if err != nil {
		t.Fatal(err)
	}

	if len(c.reauth) != 1 {
		t.Fatalf("reauthentication enabled %v times, want 1",
			len(c.reauth))
	}
	data := c.reauth[0]
	if data.ID != id.UserID {
		t.Errorf("got reauth ID %q, want %q", data.ID, id.UserID)
	}
	if data.Username != "alice" {
		t.Errorf("got reauth username %q, want %q",
			data.Username, "alice")
	}
}

func TestAuthenticateRememberFailure(t *testing.T) {
	p, _ := newTestPlugin(t)
	c := &testConn{
		reauthErr: errContrived,
	}

	seedUser(t, p, "alice", v1.UserRecord{
		Enabled: true,
	})

	// A failure to enable reauthentication fails the whole login. The
	// user asked to be remembered and the host could not honor it.
	_, err := p.Authenticate(context.Background(), c,
		loginPayload(t, v1.Login{
			Username: "alice",
			Password: testPassword,
			Remember: true,
		}))
	if err != errContrived {
		t.Fatalf("got err %v, want %v", err, errContrived)
	}

	// The failed attempt must not leave an active identity behind.
	if p.registry.len() != 0 {
		t.Errorf("registry has %v identities, want 0", p.registry.len())
	}

	// The login itself was verified, so the record write-back stands.
	r, _ := getUser(t, p, "alice")
	if r.LastLogin == 0 {
		t.Error("last login not recorded")
	}
}

func TestAuthenticateLastLoginAdvances(t *testing.T) {
	p, _ := newTestPlugin(t)
	c := &testConn{}

	// Seed a record whose last login is in the future, as would happen
	// if the wall clock went backwards.
	future := time.Now().Add(time.Hour).UnixMilli()
	seedUser(t, p, "alice", v1.UserRecord{
		ID:        "test-id",
		Enabled:   true,
		LastLogin: future,
	})

	_, err := p.Authenticate(context.Background(), c,
		loginPayload(t, v1.Login{
			Username: "alice",
			Password: testPassword,
		}))
	if err != nil {
		t.Fatal(err)
	}

	// The timestamp must still move forward.
	r, _ := getUser(t, p, "alice")
	if r.LastLogin != future+1 {
		t.Errorf("got last login %v, want %v", r.LastLogin, future+1)
	}
}

func TestAuthenticateConcurrent(t *testing.T) {
	p, _ := newTestPlugin(t)

	seedUser(t, p, "alice", v1.UserRecord{
		Enabled: true,
	})

	// Log in concurrently with the same username. Every attempt must
	// resolve to the same user ID; the ID is assigned exactly once.
	const attempts = 16
	var (
		wg  sync.WaitGroup
		ids = make([]string, attempts)

		payload = loginPayload(t, v1.Login{
			Username: "alice",
			Password: testPassword,
		})
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			id, err := p.Authenticate(context.Background(), &testConn{},
				payload)
			if err != nil {
				t.Error(err)
				return
			}
			ids[i] = id.UserID
		}(i)
	}
	wg.Wait()

	for i := 1; i < attempts; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("attempt %v was assigned ID %q, attempt 0 was "+
				"assigned %q", i, ids[i], ids[0])
		}
	}
}
