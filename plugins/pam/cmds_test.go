// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pam

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/homewired/pamauth/host"
	v1 "github.com/homewired/pamauth/plugins/pam/v1"
	"github.com/homewired/pamauth/unittest"
)

// execCmd executes a user management command on an authenticated
// connection and unmarshals the reply payload into the provided reply.
func execCmd(t *testing.T, p *plugin, c *testConn, name string, payload, reply interface{}) error {
	t.Helper()

	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	r, err := p.Exec(context.Background(), c, host.Cmd{
		Version: v1.Version,
		Name:    name,
		Payload: string(b),
	})
	if err != nil {
		return err
	}
	err = json.Unmarshal([]byte(r.Payload), reply)
	if err != nil {
		t.Fatal(err)
	}
	return nil
}

// authedConn returns a connection that is authenticated as the provided
// user ID.
func authedConn(userID string) *testConn {
	return &testConn{
		user: &host.Identity{
			UserID:   userID,
			Name:     "Admin",
			Username: "admin",
		},
	}
}

func TestExecNotAuthorized(t *testing.T) {
	p, _ := newTestPlugin(t)

	_, err := p.Exec(context.Background(), &testConn{}, host.Cmd{
		Version: v1.Version,
		Name:    v1.CmdListUsers,
	})
	wantUserErr(t, err, v1.ErrCodeNotAuthorized)
}

func TestExecInvalidCmd(t *testing.T) {
	p, _ := newTestPlugin(t)
	c := authedConn("admin-id")

	var tests = []struct {
		name string
		cmd  host.Cmd
	}{
		{
			"invalid version",
			host.Cmd{
				Version: 99,
				Name:    v1.CmdListUsers,
			},
		},
		{
			"unknown command",
			host.Cmd{
				Version: v1.Version,
				Name:    "nuke-users",
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Exec(context.Background(), c, tc.cmd)
			ue := wantUserErr(t, err, v1.ErrCodeInvalidCmd)
			if ue.Message != "Invalid message." {
				t.Errorf("got message %q, want %q", ue.Message,
					"Invalid message.")
			}
		})
	}
}

func TestCmdListUsers(t *testing.T) {
	p, _ := newTestPlugin(t)
	c := authedConn("admin-id")

	seedUser(t, p, "bob", v1.UserRecord{})
	seedUser(t, p, "alice", v1.UserRecord{Enabled: true})

	var lur v1.ListUsersReply
	err := execCmd(t, p, c, v1.CmdListUsers, v1.ListUsers{}, &lur)
	if err != nil {
		t.Fatal(err)
	}

	diff := unittest.DeepEqual(lur.Usernames, []string{"alice", "bob"})
	if diff != "" {
		t.Error(diff)
	}
}

func TestCmdGetUsers(t *testing.T) {
	p, _ := newTestPlugin(t)
	c := authedConn("admin-id")

	seedUser(t, p, "alice", v1.UserRecord{
		Name:      "Alice",
		Enabled:   true,
		LastLogin: 12345,
	})
	seedUser(t, p, "bob", v1.UserRecord{})

	var gur v1.GetUsersReply
	err := execCmd(t, p, c, v1.CmdGetUsers, v1.GetUsers{
		Usernames: []string{"bob", "alice", "carol"},
	}, &gur)
	if err != nil {
		t.Fatal(err)
	}

	if len(gur.Users) != 3 {
		t.Fatalf("got %v users, want 3", len(gur.Users))
	}

	// Records are returned in request order. Existing records without
	// an ID are assigned one; unknown usernames yield an empty record.
	bob, alice, carol := gur.Users[0], gur.Users[1], gur.Users[2]
	if bob.ID == "" {
		t.Error("bob was not assigned an ID")
	}
	if alice.Name != "Alice" || alice.LastLogin != 12345 {
		t.Errorf("got alice %+v", alice)
	}
	diff := unittest.DeepEqual(carol, v1.UserRecord{})
	if diff != "" {
		t.Error(diff)
	}

	// The assigned ID must have been persisted.
	r, _ := getUser(t, p, "bob")
	if r.ID != bob.ID {
		t.Errorf("got persisted ID %q, want %q", r.ID, bob.ID)
	}

	// The unknown username must not have been created.
	if _, found := getUser(t, p, "carol"); found {
		t.Error("record created for unknown username")
	}
}

func TestCmdSaveUser(t *testing.T) {
	p, _ := newTestPlugin(t)
	c := authedConn("admin-id")

	seedUser(t, p, "alice", v1.UserRecord{
		ID:        "alice-id",
		Name:      "Alice",
		Enabled:   true,
		LastLogin: 12345,
	})

	var tests = []struct {
		name string
		save v1.SaveUser
		want v1.ErrCode
	}{
		{
			"unknown user",
			v1.SaveUser{
				Username: "carol",
				Data:     v1.UserRecord{Enabled: true},
			},
			v1.ErrCodeUserNotFound,
		},
		{
			"user ID changed",
			v1.SaveUser{
				Username: "alice",
				Data: v1.UserRecord{
					ID:        "other-id",
					Enabled:   true,
					LastLogin: 12345,
				},
			},
			v1.ErrCodeUserIDImmutable,
		},
		{
			"last login changed",
			v1.SaveUser{
				Username: "alice",
				Data: v1.UserRecord{
					ID:        "alice-id",
					Enabled:   true,
					LastLogin: 99999,
				},
			},
			v1.ErrCodeLastLoginImmutable,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var sur v1.SaveUserReply
			err := execCmd(t, p, c, v1.CmdSaveUser, tc.save, &sur)
			wantUserErr(t, err, tc.want)

			// The stored record must be unchanged.
			r, _ := getUser(t, p, "alice")
			diff := unittest.DeepEqual(*r, v1.UserRecord{
				ID:        "alice-id",
				Name:      "Alice",
				Enabled:   true,
				LastLogin: 12345,
			})
			if diff != "" {
				t.Error(diff)
			}
		})
	}

	// A valid save replaces the record verbatim.
	var sur v1.SaveUserReply
	err := execCmd(t, p, c, v1.CmdSaveUser, v1.SaveUser{
		Username: "alice",
		Data: v1.UserRecord{
			ID:        "alice-id",
			Name:      "Alice B.",
			Enabled:   false,
			LastLogin: 12345,
		},
	}, &sur)
	if err != nil {
		t.Fatal(err)
	}

	r, _ := getUser(t, p, "alice")
	diff := unittest.DeepEqual(*r, v1.UserRecord{
		ID:        "alice-id",
		Name:      "Alice B.",
		Enabled:   false,
		LastLogin: 12345,
	})
	if diff != "" {
		t.Error(diff)
	}
}

func TestCmdSaveUserSelfDisable(t *testing.T) {
	p, _ := newTestPlugin(t)

	// The connection is authenticated as alice.
	c := authedConn("alice-id")

	seedUser(t, p, "alice", v1.UserRecord{
		ID:      "alice-id",
		Enabled: true,
	})

	var sur v1.SaveUserReply
	err := execCmd(t, p, c, v1.CmdSaveUser, v1.SaveUser{
		Username: "alice",
		Data: v1.UserRecord{
			ID:      "alice-id",
			Enabled: false,
		},
	}, &sur)
	wantUserErr(t, err, v1.ErrCodeSelfDisable)

	// Saving with the user still enabled is allowed.
	err = execCmd(t, p, c, v1.CmdSaveUser, v1.SaveUser{
		Username: "alice",
		Data: v1.UserRecord{
			ID:      "alice-id",
			Name:    "Alice",
			Enabled: true,
		},
	}, &sur)
	if err != nil {
		t.Fatal(err)
	}
}

func TestCmdInvalidPayload(t *testing.T) {
	p, _ := newTestPlugin(t)
	c := authedConn("admin-id")

	_, err := p.Exec(context.Background(), c, host.Cmd{
		Version: v1.Version,
		Name:    v1.CmdGetUsers,
		Payload: "not json",
	})
	wantUserErr(t, err, v1.ErrCodeInvalidPayload)
}
