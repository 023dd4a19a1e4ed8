// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compress provides HTTP response compression and request
// decompression for the zstd, br, gzip, and deflate encodings, gated on
// media-type compressibility.
package compress

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Supported content encodings.
const (
	EncodingZstd    = "zstd"
	EncodingBrotli  = "br"
	EncodingGzip    = "gzip"
	EncodingDeflate = "deflate"
)

// preference orders encodings for tie-breaking when the client reports equal
// quality values.
var preference = []string{EncodingZstd, EncodingBrotli, EncodingGzip, EncodingDeflate}

// SelectEncoding chooses the best content encoding based on client
// preferences. It parses the Accept-Encoding header and picks the supported
// encoding with the highest quality value, breaking ties in the order
// zstd > br > gzip > deflate. Returns the encoding name, or the empty string
// if the client accepts none of the supported encodings with quality > 0.
func SelectEncoding(acceptEncoding string) string {
	if acceptEncoding == "" {
		return ""
	}

	// Format: "gzip, deflate, br;q=0.9, *;q=0.8"
	supported := make(map[string]float32)
	for _, enc := range strings.Split(acceptEncoding, ",") {
		name, qPart, _ := strings.Cut(strings.TrimSpace(enc), ";")
		name = strings.TrimSpace(name)

		quality := float32(1.0)
		qPart = strings.TrimSpace(qPart)
		if strings.HasPrefix(qPart, "q=") {
			var q float32
			if _, err := fmt.Sscanf(qPart, "q=%f", &q); err == nil {
				quality = q
			}
		}

		switch name {
		case EncodingZstd, EncodingBrotli, EncodingGzip, EncodingDeflate:
			supported[name] = quality
		case "*":
			// Wildcard covers every encoding not explicitly listed.
			for _, candidate := range preference {
				if _, ok := supported[candidate]; !ok {
					supported[candidate] = quality
				}
			}
		}
	}

	best := ""
	bestQuality := float32(0)
	for _, candidate := range preference {
		if q, ok := supported[candidate]; ok && q > bestQuality {
			best = candidate
			bestQuality = q
		}
	}
	return best
}

// NewEncoder returns a writer that compresses data written to it with the
// given encoding and forwards the result to w. The caller must Close the
// returned writer to flush buffered output.
func NewEncoder(w io.Writer, encoding string) (io.WriteCloser, error) {
	switch encoding {
	case EncodingZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	case EncodingBrotli:
		return brotli.NewWriterLevel(w, brotli.DefaultCompression), nil
	case EncodingGzip:
		return gzip.NewWriter(w), nil
	case EncodingDeflate:
		return flate.NewWriter(w, flate.DefaultCompression)
	}
	return nil, fmt.Errorf("unsupported encoding %q", encoding)
}

// NewDecoder returns a reader that decompresses data read from r with the
// given encoding. The caller must Close the returned reader.
func NewDecoder(r io.Reader, encoding string) (io.ReadCloser, error) {
	switch encoding {
	case EncodingZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case EncodingBrotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case EncodingGzip:
		return gzip.NewReader(r)
	case EncodingDeflate:
		return flate.NewReader(r), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", encoding)
}

// ResponseWriter wraps an http.ResponseWriter to provide unconditional
// compression with a fixed encoding. It sets Content-Encoding and Vary and
// removes Content-Length, since the compressed size differs from the
// original. For conditional compression gated on media type and body size,
// use Handler instead.
type ResponseWriter struct {
	http.ResponseWriter
	writer        io.Writer
	encoding      string
	headerWritten bool
	wroteHeader   bool
}

// NewResponseWriter creates a compressing response writer for the selected
// encoding. An empty or unknown encoding yields a pass-through writer.
func NewResponseWriter(w http.ResponseWriter, encoding string) (*ResponseWriter, error) {
	cw := &ResponseWriter{
		ResponseWriter: w,
		encoding:       encoding,
	}

	switch encoding {
	case EncodingZstd, EncodingBrotli, EncodingGzip, EncodingDeflate:
		enc, err := NewEncoder(w, encoding)
		if err != nil {
			return nil, err
		}
		cw.writer = enc
	default:
		cw.writer = w
		cw.encoding = ""
	}

	return cw, nil
}

// Write compresses data and writes it to the underlying response writer.
func (cw *ResponseWriter) Write(data []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	if !cw.headerWritten {
		cw.writeCompressionHeaders()
		cw.headerWritten = true
	}
	return cw.writer.Write(data)
}

// WriteHeader writes the status code and compression headers if needed.
func (cw *ResponseWriter) WriteHeader(code int) {
	if cw.wroteHeader {
		return
	}
	cw.wroteHeader = true
	if cw.encoding != "" && !cw.headerWritten {
		cw.writeCompressionHeaders()
		cw.headerWritten = true
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *ResponseWriter) writeCompressionHeaders() {
	if cw.encoding == "" {
		return
	}

	h := cw.ResponseWriter.Header()
	h.Set("Content-Encoding", cw.encoding)
	// Compressed size differs from the original; the body goes out with
	// chunked transfer encoding instead.
	h.Del("Content-Length")
	h.Add("Vary", "Accept-Encoding")
}

// Close flushes and closes the compression writer.
func (cw *ResponseWriter) Close() error {
	if closer, ok := cw.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// DecompressRequest wraps the request body with a decompressing reader if
// the Content-Encoding header names a supported encoding. The header and
// Content-Length are removed after wrapping since the decompressed size
// differs. Unsupported encodings leave the body untouched.
func DecompressRequest(r *http.Request) error {
	contentEncoding := r.Header.Get("Content-Encoding")
	switch contentEncoding {
	case "", "identity":
		return nil
	case EncodingZstd, EncodingBrotli, EncodingGzip, EncodingDeflate:
	default:
		// Unsupported encoding - leave body as is.
		return nil
	}

	reader, err := NewDecoder(r.Body, contentEncoding)
	if err != nil {
		return fmt.Errorf("failed to create decompressor for %s: %w", contentEncoding, err)
	}

	// Closing the request body must close both the decompressor and the
	// original body.
	oldBody := r.Body
	r.Body = &closeWrapper{
		ReadCloser: reader,
		onClose:    oldBody.Close,
	}

	r.Header.Del("Content-Encoding")
	r.Header.Del("Content-Length")

	return nil
}

// closeWrapper wraps an io.ReadCloser and calls an additional function on Close.
type closeWrapper struct {
	io.ReadCloser
	onClose func() error
}

func (cw *closeWrapper) Close() error {
	err1 := cw.ReadCloser.Close()
	err2 := cw.onClose()
	return errors.Join(err1, err2)
}
