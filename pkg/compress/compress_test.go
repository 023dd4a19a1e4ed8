// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compress

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSelectEncoding(t *testing.T) {
	tests := []struct {
		name           string
		acceptEncoding string
		want           string
	}{
		{
			name:           "empty",
			acceptEncoding: "",
			want:           "",
		},
		{
			name:           "gzip only",
			acceptEncoding: "gzip",
			want:           "gzip",
		},
		{
			name:           "deflate only",
			acceptEncoding: "deflate",
			want:           "deflate",
		},
		{
			name:           "zstd only",
			acceptEncoding: "zstd",
			want:           "zstd",
		},
		{
			name:           "brotli only",
			acceptEncoding: "br",
			want:           "br",
		},
		{
			name:           "prefer zstd over gzip",
			acceptEncoding: "gzip, zstd",
			want:           "zstd",
		},
		{
			name:           "prefer zstd over brotli",
			acceptEncoding: "br, zstd",
			want:           "zstd",
		},
		{
			name:           "prefer brotli over gzip",
			acceptEncoding: "gzip, br",
			want:           "br",
		},
		{
			name:           "prefer gzip over deflate",
			acceptEncoding: "deflate, gzip",
			want:           "gzip",
		},
		{
			name:           "all four - prefer zstd",
			acceptEncoding: "gzip, deflate, br, zstd",
			want:           "zstd",
		},
		{
			name:           "quality values override preference",
			acceptEncoding: "gzip;q=0.9, zstd;q=0.5",
			want:           "gzip",
		},
		{
			name:           "quality values prefer zstd",
			acceptEncoding: "gzip;q=0.5, zstd;q=0.9",
			want:           "zstd",
		},
		{
			name:           "browser default header",
			acceptEncoding: "gzip, deflate, br;q=0.9, *;q=0.8",
			want:           "gzip",
		},
		{
			name:           "equal quality breaks ties by preference",
			acceptEncoding: "gzip, deflate, br",
			want:           "br",
		},
		{
			name:           "wildcard picks best supported",
			acceptEncoding: "*",
			want:           "zstd",
		},
		{
			name:           "zero quality disables",
			acceptEncoding: "gzip;q=0",
			want:           "",
		},
		{
			name:           "unsupported encoding",
			acceptEncoding: "compress",
			want:           "",
		},
		{
			name:           "whitespace tolerated",
			acceptEncoding: "  gzip ;  q=0.8 , zstd ; q=0.9 ",
			want:           "zstd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectEncoding(tt.acceptEncoding); got != tt.want {
				t.Errorf("SelectEncoding(%q) = %q, want %q", tt.acceptEncoding, got, tt.want)
			}
		})
	}
}

func TestEncoderDecoderRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\n"), 100)

	for _, encoding := range []string{EncodingZstd, EncodingBrotli, EncodingGzip, EncodingDeflate} {
		t.Run(encoding, func(t *testing.T) {
			var buf bytes.Buffer
			enc, err := NewEncoder(&buf, encoding)
			if err != nil {
				t.Fatalf("NewEncoder(%s): %v", encoding, err)
			}
			if _, err := enc.Write(payload); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := enc.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if buf.Len() >= len(payload) {
				t.Errorf("compressed size %d >= original %d", buf.Len(), len(payload))
			}

			dec, err := NewDecoder(&buf, encoding)
			if err != nil {
				t.Fatalf("NewDecoder(%s): %v", encoding, err)
			}
			defer dec.Close()
			got, err := io.ReadAll(dec)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(payload))
			}
		})
	}
}

func TestNewEncoderUnknown(t *testing.T) {
	if _, err := NewEncoder(io.Discard, "lzma"); err == nil {
		t.Error("NewEncoder(lzma) succeeded, want error")
	}
	if _, err := NewDecoder(strings.NewReader(""), "lzma"); err == nil {
		t.Error("NewDecoder(lzma) succeeded, want error")
	}
}

func TestResponseWriter(t *testing.T) {
	body := bytes.Repeat([]byte("hello world "), 200)

	for _, encoding := range []string{EncodingZstd, EncodingBrotli, EncodingGzip, EncodingDeflate} {
		t.Run(encoding, func(t *testing.T) {
			rec := httptest.NewRecorder()
			cw, err := NewResponseWriter(rec, encoding)
			if err != nil {
				t.Fatalf("NewResponseWriter: %v", err)
			}
			if _, err := cw.Write(body); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := cw.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			if got := rec.Header().Get("Content-Encoding"); got != encoding {
				t.Errorf("Content-Encoding = %q, want %q", got, encoding)
			}
			if got := rec.Header().Get("Vary"); got != "Accept-Encoding" {
				t.Errorf("Vary = %q, want Accept-Encoding", got)
			}

			dec, err := NewDecoder(rec.Body, encoding)
			if err != nil {
				t.Fatalf("NewDecoder: %v", err)
			}
			defer dec.Close()
			got, err := io.ReadAll(dec)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(got, body) {
				t.Error("decompressed body does not match original")
			}
		})
	}
}

func TestResponseWriterPassThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	cw, err := NewResponseWriter(rec, "")
	if err != nil {
		t.Fatalf("NewResponseWriter: %v", err)
	}
	if _, err := cw.Write([]byte("plain")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := cw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("Content-Encoding = %q, want empty", got)
	}
	if rec.Body.String() != "plain" {
		t.Errorf("body = %q, want plain", rec.Body.String())
	}
}

func TestDecompressRequest(t *testing.T) {
	payload := []byte(`{"hello":"world"}`)

	for _, encoding := range []string{EncodingZstd, EncodingBrotli, EncodingGzip, EncodingDeflate} {
		t.Run(encoding, func(t *testing.T) {
			var buf bytes.Buffer
			enc, err := NewEncoder(&buf, encoding)
			if err != nil {
				t.Fatalf("NewEncoder: %v", err)
			}
			if _, err := enc.Write(payload); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := enc.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			req := httptest.NewRequest(http.MethodPost, "/", &buf)
			req.Header.Set("Content-Encoding", encoding)

			if err := DecompressRequest(req); err != nil {
				t.Fatalf("DecompressRequest: %v", err)
			}
			got, err := io.ReadAll(req.Body)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("body = %q, want %q", got, payload)
			}
			if h := req.Header.Get("Content-Encoding"); h != "" {
				t.Errorf("Content-Encoding still set to %q after decompression", h)
			}
			if err := req.Body.Close(); err != nil {
				t.Fatalf("Body.Close: %v", err)
			}
		})
	}
}

func TestDecompressRequestIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("raw"))
	req.Header.Set("Content-Encoding", "identity")
	if err := DecompressRequest(req); err != nil {
		t.Fatalf("DecompressRequest: %v", err)
	}
	got, _ := io.ReadAll(req.Body)
	if string(got) != "raw" {
		t.Errorf("body = %q, want raw", got)
	}
}

func TestDecompressRequestUnsupported(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("raw"))
	req.Header.Set("Content-Encoding", "lzma")
	if err := DecompressRequest(req); err != nil {
		t.Fatalf("DecompressRequest: %v", err)
	}
	if h := req.Header.Get("Content-Encoding"); h != "lzma" {
		t.Errorf("Content-Encoding = %q, want lzma left untouched", h)
	}
}
