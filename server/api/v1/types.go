// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package v1

const (
	// APIVersion is the lowest supported API version.
	APIVersion uint32 = 1

	// APIVersionPrefix is prepended to all of the routes below.
	APIVersionPrefix = "/api/v1"
)

// Routes.
const (
	VersionRoute = "/version"
	LoginRoute   = "/login"
	LogoutRoute  = "/logout"
	CmdRoute     = "/cmd"
)

const (
	// CSRFTokenHeader is the header that the server returns the CSRF header
	// token in and that the client must provide the token in on all CSRF
	// protected routes.
	CSRFTokenHeader = "X-CSRF-Token"

	// CookieSession is the cookie that the encoded session ID travels in.
	CookieSession = "session"
)

// Version contains the GET request parameters for the VersionRoute. The
// VersionRoute returns a VersionReply.
//
// This route sets CSRF tokens for clients using the double submit cookie
// technique. A token is set in a cookie and a token is set in a header.
// Clients MUST make a successful Version call before they'll be able to
// use CSRF protected routes.
type Version struct{}

// VersionReply is the reply for the VersionRoute.
type VersionReply struct {
	// BuildVersion is the semantic version of the server build.
	BuildVersion string `json:"buildversion"`

	// APIVersion is the lowest supported API version.
	APIVersion uint32 `json:"apiversion"`

	// PluginID is the protocol ID of the authentication plugin that the
	// server is running.
	PluginID string `json:"pluginid"`
}

// Login contains the POST request body for the LoginRoute. The payload is
// the JSON encoded login request; its contents belong to the plugin and are
// passed through opaquely.
type Login struct {
	Payload string `json:"payload"` // JSON encoded
}

// LoginReply is the reply for the LoginRoute.
type LoginReply struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Logout contains the POST request body for the LogoutRoute. The
// LogoutRoute returns a LogoutReply.
type Logout struct{}

// LogoutReply is the reply for the LogoutRoute.
type LogoutReply struct{}

// Cmd represents a user management command that is passed through to the
// plugin.
type Cmd struct {
	Version uint32 `json:"version"` // Plugin API version
	Name    string `json:"name"`
	Payload string `json:"payload"` // JSON encoded
}

// CmdReply is the reply to a Cmd request.
type CmdReply struct {
	Version uint32       `json:"version"` // Plugin API version
	Name    string       `json:"name"`
	Payload string       `json:"payload"` // JSON encoded
	Error   *PluginError `json:"error,omitempty"`
}

// PluginError represents an error that occurred during the execution of a
// plugin command and that was caused by the user.
//
// A PluginError is returned in the CmdReply.
type PluginError struct {
	Code    uint32 `json:"code"`
	Message string `json:"message,omitempty"`
}

// ErrCode represents a server error that was caused by the user.
type ErrCode uint32

const (
	// ErrCodeInvalid is an invalid error code.
	ErrCodeInvalid ErrCode = 0

	// ErrCodeInvalidInput is returned when the request body could not be
	// parsed.
	ErrCodeInvalidInput ErrCode = 1

	// ErrCodeInvalidCmd is returned when a plugin command is not recognized
	// by the server.
	ErrCodeInvalidCmd ErrCode = 2

	// ErrCodeNotLoggedIn is returned when a route that requires an
	// authenticated session is hit without one.
	ErrCodeNotLoggedIn ErrCode = 3
)

// ErrCodes contains the human readable error messages.
var ErrCodes = map[ErrCode]string{
	ErrCodeInvalid:      "invalid error",
	ErrCodeInvalidInput: "invalid input",
	ErrCodeInvalidCmd:   "invalid cmd",
	ErrCodeNotLoggedIn:  "not logged in",
}

// UserError is the reply that the server returns when a request does not
// pass validation.
type UserError struct {
	ErrorCode ErrCode `json:"errorcode"`

	// ErrorContext contains additional details about the error. This field
	// is optional.
	ErrorContext string `json:"errorcontext,omitempty"`
}

// ValidationError is the reply that the server returns when the plugin
// rejects a login request with a recoverable field validation error. The
// field messages are passed through from the plugin.
type ValidationError struct {
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
	Validation bool   `json:"validation"`
}

// InternalError is the reply that the server returns when it encounters an
// unrecoverable error. The ErrorCode field contains a Unix timestamp that
// can be used to correlate the error with the server logs.
type InternalError struct {
	ErrorCode int64 `json:"errorcode"`
}
