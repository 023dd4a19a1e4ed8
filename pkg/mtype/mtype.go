// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mtype guesses the media type of a file from its name and contents.
package mtype

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DefaultType is returned when nothing better can be determined.
const DefaultType = "application/octet-stream"

// extTypes supplements the platform mime registry with extensions it
// commonly lacks or resolves inconsistently across systems.
var extTypes = map[string]string{
	".br":       "application/x-brotli",
	".csv":      "text/csv",
	".gz":       "application/gzip",
	".json":     "application/json",
	".markdown": "text/markdown",
	".md":       "text/markdown",
	".mjs":      "text/javascript",
	".tar":      "application/x-tar",
	".toml":     "application/toml",
	".vtt":      "text/vtt",
	".wasm":     "application/wasm",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".zst":      "application/zstd",
}

type file struct {
	f    *os.File
	path string
}

// DetectFile reports the media-type essence ("type/subtype", lowercase, no
// parameters) of the file at path. Detection tries the file name first, then
// sniffs the leading bytes. Files that defeat both checks report DefaultType.
func DetectFile(path string) (string, error) {
	f, err := newFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return f.detect()
}

func newFile(path string) (*file, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	return &file{f: f, path: path}, nil
}

func (f *file) Close() error {
	return f.f.Close()
}

func (f *file) detect() (string, error) {
	if mt, ok := f.detectByName(); ok {
		return mt, nil
	}
	mt, err := f.detectByContent()
	if err != nil {
		return "", fmt.Errorf("failed to sniff content: %w", err)
	}
	return mt, nil
}

// detectByName resolves the media type from the file extension, preferring
// the package's own table over the platform registry so results do not vary
// with the host's mime.types.
func (f *file) detectByName() (string, bool) {
	if f.path == "" {
		return "", false
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(f.path)))
	if ext == "" {
		return "", false
	}

	if mt, ok := extTypes[ext]; ok {
		return mt, true
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return essence(mt), true
	}
	return "", false
}

// detectByContent sniffs the first 512 bytes of the file.
func (f *file) detectByContent() (string, error) {
	if err := f.checkAndSeek0(); err != nil {
		return "", err
	}

	buf := make([]byte, 512)
	n, err := io.ReadFull(f.f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("failed to read file: %v", err)
	}
	buf = buf[:n]

	// http.DetectContentType does not know the zstd frame magic.
	if len(buf) >= 4 && buf[0] == 0x28 && buf[1] == 0xb5 && buf[2] == 0x2f && buf[3] == 0xfd {
		return "application/zstd", nil
	}

	return essence(http.DetectContentType(buf)), nil
}

func (f *file) checkAndSeek0() error {
	if f.f == nil {
		return fmt.Errorf("file is nil")
	}
	if _, err := f.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start of file: %w", err)
	}
	return nil
}

// essence strips parameters and normalizes case. Unparseable detector output
// collapses to DefaultType.
func essence(mediaType string) string {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return DefaultType
	}
	return mt
}
