// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package v1

const (
	// ID is the protocol ID that the plugin registers its handlers and
	// web UI bundle under.
	ID = "PAM"

	// Version is the lowest supported API version.
	Version uint32 = 1
)

// User management command names. This is a closed set; dispatch is
// exhaustive and any other name fails with ErrCodeInvalidCmd.
const (
	CmdListUsers = "list-users"
	CmdGetUsers  = "get-users"
	CmdSaveUser  = "save-user"
)
