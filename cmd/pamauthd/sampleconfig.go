// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
)

// sampleConfig is a string containing the sample config for the server.
const sampleConfig = `[Application Options]

; ------------------------------------------------------------------------------
; General Application Settings
; ------------------------------------------------------------------------------
; appdata=~/.pamauthd
; configfile=~/.pamauthd/pamauthd.conf
; datadir=~/.pamauthd/data
; logdir=~/.pamauthd/logs
; debuglevel=info
;
; ------------------------------------------------------------------------------
; HTTP Server Settings
; ------------------------------------------------------------------------------
; listen=4443
; sessionmaxage=86400
;
; ------------------------------------------------------------------------------
; Database Settings
; ------------------------------------------------------------------------------
; store=leveldb
; dbhost=localhost:3306
;
; ------------------------------------------------------------------------------
; Plugin Settings
; ------------------------------------------------------------------------------
; pluginsetting=service,login
; pluginsetting=remotehost,
`

// createDefaultConfigFile creates the sample config file at the provided
// path.
func createDefaultConfigFile(destPath string) error {
	// Create the destination directory if it does not exist.
	err := os.MkdirAll(filepath.Dir(destPath), 0700)
	if err != nil {
		return err
	}

	// Create config file at the provided path.
	return os.WriteFile(destPath, []byte(sampleConfig), 0644)
}
