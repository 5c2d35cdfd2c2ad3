// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package v1

const (
	// SettingService is the PAM service name that credentials are
	// verified against.
	SettingService = "service"

	// SettingRemoteHost is the remote host string that is passed to the
	// OS authentication facility for logging purposes.
	SettingRemoteHost = "remotehost"
)
