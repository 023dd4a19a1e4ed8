// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codecutil provides file-level compression helpers over the
// encodings supported by pkg/compress.
package codecutil

import (
	"fmt"
	"io"
	"os"

	"github.com/yeetrun/squish/pkg/compress"
)

// CompressFile compresses src into dst using the given encoding
// (zstd, br, gzip, or deflate).
func CompressFile(src, dst, encoding string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	encoder, err := compress.NewEncoder(dstFile, encoding)
	if err != nil {
		return fmt.Errorf("failed to create %s encoder: %w", encoding, err)
	}

	if _, err := io.Copy(encoder, srcFile); err != nil {
		encoder.Close()
		return fmt.Errorf("failed to compress file: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to flush %s encoder: %w", encoding, err)
	}

	return dstFile.Sync()
}

// DecompressFile decompresses src into dst using the given encoding.
func DecompressFile(src, dst, encoding string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	decoder, err := compress.NewDecoder(srcFile, encoding)
	if err != nil {
		return fmt.Errorf("failed to create %s decoder: %w", encoding, err)
	}
	defer decoder.Close()

	if _, err := io.Copy(dstFile, decoder); err != nil {
		return fmt.Errorf("failed to decompress file: %w", err)
	}

	return dstFile.Sync()
}
