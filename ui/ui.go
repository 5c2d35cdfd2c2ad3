// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ui contains the plugin's static web UI bundle. The bundle is
// embedded into the binary and registered with the host, which serves it at
// the bundle root path and loads the script entry point in its admin
// interface.
package ui

import (
	"embed"
	"io/fs"
)

//go:embed assets
var assets embed.FS

// Script is the bundle's script entry point, relative to the bundle root.
const Script = "index.js"

// Assets returns the static assets with the bundle root as the filesystem
// root.
func Assets() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		// The assets are embedded at compile time. This cannot fail on a
		// correctly built binary.
		panic(err)
	}
	return sub
}
