// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tarball archives directory trees as tar streams compressed with
// any encoding supported by pkg/compress.
package tarball

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yeetrun/squish/pkg/compress"
)

// Create writes a compressed tar archive of dir to w.
func Create(w io.Writer, dir, encoding string) error {
	enc, err := compress.NewEncoder(w, encoding)
	if err != nil {
		return err
	}
	if err := tarDirectory(enc, dir); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Extract unpacks the compressed tar stream r into dest.
func Extract(r io.Reader, dest, encoding string) error {
	dec, err := compress.NewDecoder(r, encoding)
	if err != nil {
		return err
	}
	defer dec.Close()
	return extractTar(dec, dest)
}

// tarDirectory writes a tar archive of src into w. Entries are relative
// to src.
func tarDirectory(w io.Writer, src string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("expected directory, got %q", src)
	}
	tw := tar.NewWriter(w)

	src = filepath.Clean(src)
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == src {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return fmt.Errorf("symlinks not supported: %s", p)
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() && !strings.HasSuffix(hdr.Name, "/") {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		if _, err := io.Copy(tw, f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
	if err != nil {
		tw.Close()
		return err
	}
	return tw.Close()
}

// extractTar extracts a tar archive stream into dest. It rejects absolute
// or parent-traversal paths.
func extractTar(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	dest = filepath.Clean(dest)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		name := path.Clean(hdr.Name)
		if name == "." || name == "" {
			continue
		}
		if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
			return fmt.Errorf("invalid tar entry %q", hdr.Name)
		}
		target := filepath.Join(dest, filepath.FromSlash(name))
		if !isSubpath(dest, target) {
			return fmt.Errorf("invalid tar entry %q", hdr.Name)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			mode := os.FileMode(hdr.Mode).Perm()
			if mode == 0 {
				mode = 0o644
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported tar entry %q", hdr.Name)
		}
	}
}

func isSubpath(root, target string) bool {
	root = filepath.Clean(root)
	target = filepath.Clean(target)
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
