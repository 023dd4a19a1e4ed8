// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package server serves a static file tree over HTTP with negotiated
// response compression for compressible media types.
package server

import (
	"log"
	"net/http"

	"github.com/yeetrun/squish/pkg/compress"
)

// Handler builds the HTTP handler for cfg: a file server rooted at cfg.Root,
// wrapped in the compression middleware unless compression is disabled.
func Handler(cfg *Config) http.Handler {
	fs := http.FileServer(http.Dir(cfg.Root))
	if cfg.Compression.Disabled {
		return fs
	}
	return compress.Handler(fs, compress.WithMinSize(cfg.Compression.MinSize))
}

// ListenAndServe runs the file server until the listener fails.
func ListenAndServe(cfg *Config) error {
	log.Printf("serving %s on %s", cfg.Root, cfg.Listen)
	return http.ListenAndServe(cfg.Listen, Handler(cfg))
}
