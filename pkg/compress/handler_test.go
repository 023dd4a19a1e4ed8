// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compress

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var htmlBody = bytes.Repeat([]byte("<p>hello world</p>\n"), 200)

func serveBody(contentType string, body []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Write(body)
	})
}

func doRequest(t *testing.T, h http.Handler, method, acceptEncoding string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/", nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCompressesCompressibleType(t *testing.T) {
	h := Handler(serveBody("text/html; charset=utf-8", htmlBody))

	rec := doRequest(t, h, http.MethodGet, "gzip, br, zstd")
	if got := rec.Header().Get("Content-Encoding"); got != EncodingZstd {
		t.Fatalf("Content-Encoding = %q, want zstd", got)
	}
	if got := rec.Header().Get("Vary"); got != "Accept-Encoding" {
		t.Errorf("Vary = %q, want Accept-Encoding", got)
	}

	dec, err := NewDecoder(rec.Body, EncodingZstd)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	defer dec.Close()
	got, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if diff := cmp.Diff(string(htmlBody), string(got)); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestHandlerSkipsIncompressibleType(t *testing.T) {
	body := bytes.Repeat([]byte{0xff, 0xd8, 0xff, 0xe0}, 1000)
	h := Handler(serveBody("image/jpeg", body))

	rec := doRequest(t, h, http.MethodGet, "gzip, br, zstd")
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Fatalf("Content-Encoding = %q, want empty", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), body) {
		t.Error("body was modified")
	}
}

func TestHandlerSkipsSmallBody(t *testing.T) {
	h := Handler(serveBody("text/html", []byte("tiny")))

	rec := doRequest(t, h, http.MethodGet, "gzip")
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Fatalf("Content-Encoding = %q, want empty for small body", got)
	}
	if rec.Body.String() != "tiny" {
		t.Errorf("body = %q, want tiny", rec.Body.String())
	}
}

func TestHandlerMinSizeOption(t *testing.T) {
	h := Handler(serveBody("text/html", []byte("tiny")), WithMinSize(1))

	rec := doRequest(t, h, http.MethodGet, "gzip")
	if got := rec.Header().Get("Content-Encoding"); got != EncodingGzip {
		t.Fatalf("Content-Encoding = %q, want gzip", got)
	}
	dec, err := NewDecoder(rec.Body, EncodingGzip)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	defer dec.Close()
	got, _ := io.ReadAll(dec)
	if string(got) != "tiny" {
		t.Errorf("body = %q, want tiny", got)
	}
}

func TestHandlerNoAcceptEncoding(t *testing.T) {
	h := Handler(serveBody("text/html", htmlBody))

	rec := doRequest(t, h, http.MethodGet, "")
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Fatalf("Content-Encoding = %q, want empty without Accept-Encoding", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), htmlBody) {
		t.Error("body was modified")
	}
}

func TestHandlerSkipsHead(t *testing.T) {
	h := Handler(serveBody("text/html", htmlBody))

	rec := doRequest(t, h, http.MethodHead, "gzip")
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Fatalf("Content-Encoding = %q, want empty for HEAD", got)
	}
}

func TestHandlerSkipsAlreadyEncoded(t *testing.T) {
	h := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(htmlBody)
	}))

	rec := doRequest(t, h, http.MethodGet, "zstd")
	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip left untouched", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), htmlBody) {
		t.Error("pre-encoded body was modified")
	}
}

func TestHandlerSkipsRangeResponse(t *testing.T) {
	h := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Range", "bytes 0-3799/3800")
		w.WriteHeader(http.StatusPartialContent)
		w.Write(htmlBody)
	}))

	rec := doRequest(t, h, http.MethodGet, "gzip")
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Fatalf("Content-Encoding = %q, want empty for range response", got)
	}
	if rec.Code != http.StatusPartialContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusPartialContent)
	}
}

func TestHandlerPreservesStatusCode(t *testing.T) {
	h := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write(bytes.Repeat([]byte(`{"error":"not found"}`), 100))
	}))

	rec := doRequest(t, h, http.MethodGet, "gzip")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := rec.Header().Get("Content-Encoding"); got != EncodingGzip {
		t.Errorf("Content-Encoding = %q, want gzip", got)
	}
}

func TestHandlerCustomPredicate(t *testing.T) {
	always := func(string) bool { return true }
	h := Handler(serveBody("application/x-custom", htmlBody), WithContentTypes(always))

	rec := doRequest(t, h, http.MethodGet, "gzip")
	if got := rec.Header().Get("Content-Encoding"); got != EncodingGzip {
		t.Fatalf("Content-Encoding = %q, want gzip with custom predicate", got)
	}
}

func TestHandlerNoContentType(t *testing.T) {
	h := Handler(serveBody("", htmlBody))

	rec := doRequest(t, h, http.MethodGet, "gzip")
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Fatalf("Content-Encoding = %q, want empty without Content-Type", got)
	}
}

func TestHandlerFlushStreams(t *testing.T) {
	h := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "first chunk\n")
		w.(http.Flusher).Flush()
		io.WriteString(w, "second chunk\n")
	}))

	rec := doRequest(t, h, http.MethodGet, "gzip")
	if got := rec.Header().Get("Content-Encoding"); got != EncodingGzip {
		t.Fatalf("Content-Encoding = %q, want gzip after Flush", got)
	}
	if !rec.Flushed {
		t.Error("underlying writer was not flushed")
	}

	dec, err := NewDecoder(rec.Body, EncodingGzip)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	defer dec.Close()
	got, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if want := "first chunk\nsecond chunk\n"; string(got) != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestHandlerServesConcurrently(t *testing.T) {
	h := Handler(serveBody("text/css", bytes.Repeat([]byte("body{margin:0}\n"), 300)))
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	for i := 0; i < 8; i++ {
		t.Run("", func(t *testing.T) {
			t.Parallel()
			req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
			req.Header.Set("Accept-Encoding", "zstd")
			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatalf("Do: %v", err)
			}
			defer resp.Body.Close()
			if got := resp.Header.Get("Content-Encoding"); got != EncodingZstd {
				t.Fatalf("Content-Encoding = %q, want zstd", got)
			}
			dec, err := NewDecoder(resp.Body, EncodingZstd)
			if err != nil {
				t.Fatalf("NewDecoder: %v", err)
			}
			defer dec.Close()
			if _, err := io.ReadAll(dec); err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
		})
	}
}
