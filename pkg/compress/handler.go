// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compress

import (
	"io"
	"net/http"

	"github.com/yeetrun/squish/pkg/compressible"
)

// DefaultMinSize is the smallest response body the middleware will compress.
// Below this, header overhead eats most of the gain.
const DefaultMinSize = 1024

// Option configures the Handler middleware.
type Option func(*config)

type config struct {
	minSize        int
	shouldCompress func(contentType string) bool
}

// WithMinSize sets the minimum body size, in bytes, a response must reach
// before it is compressed. Responses that finish below the threshold pass
// through unmodified.
func WithMinSize(n int) Option {
	return func(c *config) { c.minSize = n }
}

// WithContentTypes replaces the media-type predicate used to decide whether
// a response body is worth compressing. The default is
// compressible.IsCompressible.
func WithContentTypes(f func(contentType string) bool) Option {
	return func(c *config) { c.shouldCompress = f }
}

// Handler wraps next with response compression. A response is compressed
// only when all of the following hold:
//
//   - the client negotiated a supported encoding via Accept-Encoding
//   - the response Content-Type is classified compressible
//   - the response is not already encoded and is not a Range response
//   - the body reaches the minimum size threshold (or the handler flushes)
//
// Requests that fail any check are served unmodified. HEAD requests are
// never compressed.
func Handler(next http.Handler, opts ...Option) http.Handler {
	cfg := &config{
		minSize:        DefaultMinSize,
		shouldCompress: compressible.IsCompressible,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		encoding := SelectEncoding(r.Header.Get("Accept-Encoding"))
		if encoding == "" {
			next.ServeHTTP(w, r)
			return
		}

		cw := &conditionalWriter{
			ResponseWriter: w,
			encoding:       encoding,
			cfg:            cfg,
		}
		defer cw.close()
		next.ServeHTTP(cw, r)
	})
}

// conditionalWriter buffers the response body until it can decide whether
// compression pays off. The decision happens when the buffer reaches the
// minimum size, the handler flushes, or the response ends.
type conditionalWriter struct {
	http.ResponseWriter
	encoding string
	cfg      *config

	status  int
	buf     []byte
	decided bool
	comp    io.WriteCloser // non-nil when compressing
}

func (cw *conditionalWriter) WriteHeader(code int) {
	if cw.status == 0 {
		cw.status = code
	}
}

func (cw *conditionalWriter) Write(p []byte) (int, error) {
	if cw.decided {
		if cw.comp != nil {
			return cw.comp.Write(p)
		}
		return cw.ResponseWriter.Write(p)
	}
	cw.buf = append(cw.buf, p...)
	if len(cw.buf) >= cw.cfg.minSize {
		if err := cw.decide(true); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush forces the compression decision so that streaming handlers work,
// then flushes the encoder and the underlying writer.
func (cw *conditionalWriter) Flush() {
	if !cw.decided {
		if err := cw.decide(true); err != nil {
			return
		}
	}
	if f, ok := cw.comp.(interface{ Flush() error }); ok {
		f.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// decide settles whether the response gets compressed, writes the response
// headers, and drains the buffer to the chosen destination. wantCompress is
// false when the body finished below the size threshold.
func (cw *conditionalWriter) decide(wantCompress bool) error {
	cw.decided = true
	h := cw.Header()

	compressing := wantCompress &&
		h.Get("Content-Encoding") == "" &&
		h.Get("Content-Range") == "" &&
		cw.cfg.shouldCompress(h.Get("Content-Type"))

	status := cw.status
	if status == 0 {
		status = http.StatusOK
	}

	if compressing {
		enc, err := NewEncoder(cw.ResponseWriter, cw.encoding)
		if err != nil {
			return err
		}
		h.Set("Content-Encoding", cw.encoding)
		h.Del("Content-Length")
		h.Add("Vary", "Accept-Encoding")
		cw.ResponseWriter.WriteHeader(status)
		cw.comp = enc
	} else {
		cw.ResponseWriter.WriteHeader(status)
	}

	if len(cw.buf) == 0 {
		return nil
	}
	buf := cw.buf
	cw.buf = nil
	var err error
	if cw.comp != nil {
		_, err = cw.comp.Write(buf)
	} else {
		_, err = cw.ResponseWriter.Write(buf)
	}
	return err
}

func (cw *conditionalWriter) close() error {
	if !cw.decided {
		if err := cw.decide(false); err != nil {
			return err
		}
	}
	if cw.comp != nil {
		return cw.comp.Close()
	}
	return nil
}
