// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package host

import "fmt"

// UserErr represents an error that occurred during the execution of a
// handler and that was caused by the user. The message is displayed to the
// user verbatim and the attempt is not retried.
type UserErr struct {
	Code    uint32
	Message string
}

// Error satisfies the error interface.
func (e UserErr) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("user err: %v", e.Code)
	}
	return e.Message
}
