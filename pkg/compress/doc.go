// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compress provides HTTP request and response compression gated on
// media-type compressibility.
//
// # Supported Encodings
//
// The package supports four compression algorithms with automatic content
// negotiation:
//
//   - zstd (Zstandard) - Modern compression with excellent ratio and speed
//   - br (Brotli) - Strong ratios, widely supported by browsers
//   - gzip - Widely supported, good general-purpose compression
//   - deflate - Basic compression with broad compatibility
//
// # Middleware
//
// For most servers, wrap a handler with Handler and let it decide per
// response:
//
//	mux := http.NewServeMux()
//	mux.Handle("/", http.FileServer(http.Dir(root)))
//	srv := compress.Handler(mux)
//
// The middleware negotiates an encoding from Accept-Encoding, checks the
// response Content-Type against the compressible reference table, and only
// compresses bodies that reach a minimum size. Responses that are already
// encoded, carry Content-Range, or have an incompressible media type pass
// through untouched.
//
// # Response Compression
//
// For unconditional compression with a fixed encoding, use ResponseWriter:
//
//	acceptEncoding := r.Header.Get("Accept-Encoding")
//	encoding := compress.SelectEncoding(acceptEncoding)
//
//	if encoding != "" {
//	    w, err := compress.NewResponseWriter(responseWriter, encoding)
//	    if err != nil {
//	        // handle error
//	    }
//	    defer w.Close()
//
//	    // Write compressed data
//	    w.Write(data)
//	}
//
// The ResponseWriter automatically:
//   - Sets Content-Encoding header
//   - Sets Vary: Accept-Encoding header
//   - Removes Content-Length header (uses chunked transfer encoding)
//   - Handles compression writer lifecycle
//
// # Request Decompression
//
// For decompressing incoming request bodies (uploads), use DecompressRequest:
//
//	if err := compress.DecompressRequest(r); err != nil {
//	    // handle error
//	}
//	// r.Body is now decompressed and ready to read
//	data, _ := io.ReadAll(r.Body)
//
// # Content Negotiation
//
// The SelectEncoding function parses Accept-Encoding headers and selects
// the best encoding based on client preferences and quality values:
//
//	// Client preference: zstd with quality 0.9, gzip with quality 0.8
//	encoding := compress.SelectEncoding("zstd;q=0.9, gzip;q=0.8")
//	// Returns: "zstd"
//
// Preference order when quality values are equal: zstd > br > gzip > deflate
package compress
