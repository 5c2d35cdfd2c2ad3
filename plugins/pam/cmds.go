// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pam

import (
	"context"
	"encoding/json"

	"github.com/homewired/pamauth/host"
	v1 "github.com/homewired/pamauth/plugins/pam/v1"
	"github.com/pkg/errors"
)

// Exec executes a user management command. All commands require an
// authenticated connection. The command name set is closed; anything else
// fails with ErrCodeInvalidCmd.
//
// This function satisfies the host UserManager interface.
func (p *plugin) Exec(ctx context.Context, conn host.Conn, c host.Cmd) (*host.CmdReply, error) {
	log.Tracef("Exec %v", &c)

	if c.Version != v1.Version {
		return nil, userErr(v1.ErrCodeInvalidCmd)
	}
	caller := conn.User()
	if caller == nil {
		return nil, userErr(v1.ErrCodeNotAuthorized)
	}

	var (
		payload string
		err     error
	)
	switch c.Name {
	case v1.CmdListUsers:
		payload, err = p.cmdListUsers()
	case v1.CmdGetUsers:
		payload, err = p.cmdGetUsers(c.Payload)
	case v1.CmdSaveUser:
		payload, err = p.cmdSaveUser(caller, c.Payload)
	default:
		return nil, userErr(v1.ErrCodeInvalidCmd)
	}
	if err != nil {
		return nil, err
	}

	return &host.CmdReply{
		Payload: payload,
	}, nil
}

// cmdListUsers returns all known usernames in the store's key ordering.
func (p *plugin) cmdListUsers() (string, error) {
	usernames, err := p.users.keys()
	if err != nil {
		return "", err
	}

	return marshalReply(v1.ListUsersReply{
		Usernames: usernames,
	})
}

// cmdGetUsers returns the user records for the requested usernames, in
// request order. Usernames without a record yield an empty record rather
// than an error. Records that are missing an identifier are assigned one
// and persisted as a side effect, so every record handed to the admin UI
// carries a stable ID.
func (p *plugin) cmdGetUsers(payload string) (string, error) {
	var gu v1.GetUsers
	err := json.Unmarshal([]byte(payload), &gu)
	if err != nil {
		return "", userErr(v1.ErrCodeInvalidPayload)
	}

	users := make([]v1.UserRecord, 0, len(gu.Usernames))
	for _, username := range gu.Usernames {
		r, _, err := p.getWithID(username)
		if err != nil {
			return "", err
		}
		users = append(users, *r)
	}

	return marshalReply(v1.GetUsersReply{
		Users: users,
	})
}

// getWithID returns the record for a username, assigning and persisting an
// identifier if the record exists without one. Records that do not exist
// are returned empty and are not created.
func (p *plugin) getWithID(username string) (*v1.UserRecord, bool, error) {
	unlock := p.users.lock(username)
	defer unlock()

	r, found, err := p.users.get(username)
	if err != nil {
		return nil, false, err
	}
	if found && p.users.ensureID(r) {
		err = p.users.save(username, *r)
		if err != nil {
			return nil, false, err
		}
	}
	return r, found, nil
}

// cmdSaveUser replaces a user record. The record must already exist, the
// identifier and the last login timestamp cannot be edited, and the caller
// cannot disable their own account. The incoming record replaces the
// stored one verbatim; fields are not merged.
func (p *plugin) cmdSaveUser(caller *host.Identity, payload string) (string, error) {
	var su v1.SaveUser
	err := json.Unmarshal([]byte(payload), &su)
	if err != nil {
		return "", userErr(v1.ErrCodeInvalidPayload)
	}

	unlock := p.users.lock(su.Username)
	defer unlock()

	existing, found, err := p.users.get(su.Username)
	if err != nil {
		return "", err
	}
	switch {
	case !found:
		return "", userErr(v1.ErrCodeUserNotFound)

	case su.Data.ID != existing.ID:
		return "", userErr(v1.ErrCodeUserIDImmutable)

	case su.Data.LastLogin != 0 && su.Data.LastLogin != existing.LastLogin:
		return "", userErr(v1.ErrCodeLastLoginImmutable)

	case existing.ID == caller.UserID && !su.Data.Enabled:
		return "", userErr(v1.ErrCodeSelfDisable)
	}

	err = p.users.save(su.Username, su.Data)
	if err != nil {
		return "", err
	}

	log.Infof("User %q updated by %v", su.Username, caller)

	return marshalReply(v1.SaveUserReply{})
}

func marshalReply(reply interface{}) (string, error) {
	b, err := json.Marshal(reply)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(b), nil
}
