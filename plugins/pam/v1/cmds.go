// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package v1

// UserRecord is the per-username record that the plugin persists in the
// host's key-value store.
//
// ID is assigned on the first successful login, or on the first
// administrative listing for records created before identifiers were
// tracked. Once assigned it never changes.
//
// LastLogin is a Unix timestamp in milliseconds. It is only ever advanced
// by the authentication path; the user management path rejects edits to it.
type UserRecord struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Enabled   bool   `json:"enabled,omitempty"`
	LastLogin int64  `json:"last_login,omitempty"`
}

// Login is the payload of an authentication request.
type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
}

// LoginReply is the reply to a Login request.
type LoginReply struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// ListUsers requests the full set of known usernames. The reply ordering is
// the store's key ordering.
type ListUsers struct{}

// ListUsersReply is the reply to a ListUsers command.
type ListUsersReply struct {
	Usernames []string `json:"usernames"`
}

// GetUsers requests the user records for the provided usernames. Records
// are returned in the same order as the request usernames. Records that are
// missing an ID are assigned one as a side effect.
type GetUsers struct {
	Usernames []string `json:"usernames"`
}

// GetUsersReply is the reply to a GetUsers command.
type GetUsersReply struct {
	Users []UserRecord `json:"users"`
}

// SaveUser replaces the user record for a username with the provided data.
// The caller must send a complete record that was previously fetched with
// GetUsers; no field merging is performed.
type SaveUser struct {
	Username string     `json:"username"`
	Data     UserRecord `json:"data"`
}

// SaveUserReply is the reply to a SaveUser command.
type SaveUserReply struct{}
