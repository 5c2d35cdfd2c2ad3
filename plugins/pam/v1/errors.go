// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package v1

import "encoding/json"

type ErrCode uint32

const (
	ErrCodeInvalid            ErrCode = 0
	ErrCodeInvalidPayload     ErrCode = 1
	ErrCodeInvalidCredentials ErrCode = 2
	ErrCodeUserNotAllowed     ErrCode = 3
	ErrCodeUserNotFound       ErrCode = 4
	ErrCodeUserIDImmutable    ErrCode = 5
	ErrCodeLastLoginImmutable ErrCode = 6
	ErrCodeSelfDisable        ErrCode = 7
	ErrCodeInvalidCmd         ErrCode = 8
	ErrCodeNotAuthorized      ErrCode = 9

	// ErrCodeLast unit test only.
	ErrCodeLast ErrCode = 10
)

// ErrCodes contains the user-facing error string for each error code. These
// strings are displayed verbatim by the UI.
//
// The ErrCodeInvalidCredentials string is a fallback. The login path
// replaces it with the opaque failure reason from the OS authentication
// facility.
var ErrCodes = map[ErrCode]string{
	ErrCodeInvalid:            "invalid error code",
	ErrCodeInvalidPayload:     "invalid payload",
	ErrCodeInvalidCredentials: "invalid credentials",
	ErrCodeUserNotAllowed:     "This user is not allowed to access this home.",
	ErrCodeUserNotFound:       "Unknown user.",
	ErrCodeUserIDImmutable:    "Cannot change user ID.",
	ErrCodeLastLoginImmutable: "Cannot change last login timestamp.",
	ErrCodeSelfDisable:        "You cannot disable the authenticated user.",
	ErrCodeInvalidCmd:         "Invalid message.",
	ErrCodeNotAuthorized:      "not authorized",
}

// Field messages for login request validation.
const (
	ErrMsgUsernameMissing = "Enter your username."
	ErrMsgPasswordMissing = "Enter your password."
)

// ValidationErr is the structured error that is returned when a login
// request is missing required input. It is raised before the credential
// verifier is invoked and is recoverable; the UI highlights the named
// fields rather than displaying a generic failure.
type ValidationErr struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Error satisfies the error interface.
func (e ValidationErr) Error() string {
	switch {
	case e.Username != "" && e.Password != "":
		return e.Username + " " + e.Password
	case e.Username != "":
		return e.Username
	default:
		return e.Password
	}
}

// MarshalJSON marshals the validation error into the wire envelope
// {field: message, ..., "validation": true}.
func (e ValidationErr) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, 3)
	if e.Username != "" {
		m["username"] = e.Username
	}
	if e.Password != "" {
		m["password"] = e.Password
	}
	m["validation"] = true
	return json.Marshal(m)
}
