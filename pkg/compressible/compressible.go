// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compressible classifies media types as worth compressing with a
// general-purpose entropy coder (gzip, brotli, zstd, deflate) or not.
package compressible

import (
	"fmt"
	"mime"
	"sync"
)

// table builds the lookup map from tableEntries exactly once. The map is
// never written after construction, so concurrent readers need no locking.
var table = sync.OnceValue(func() map[string]bool {
	m := make(map[string]bool, len(tableEntries))
	for _, e := range tableEntries {
		if _, dup := m[e.essence]; dup {
			panic(fmt.Sprintf("compressible: duplicate table entry %q", e.essence))
		}
		m[e.essence] = e.compressible
	}
	return m
})

// Lookup reports the stored classification for a normalized media-type
// essence ("type/subtype", lowercase, no parameters). The second return
// value is false when the essence has no table entry, which is distinct
// from an entry stored as not compressible.
func Lookup(essence string) (compressible, ok bool) {
	compressible, ok = table()[essence]
	return compressible, ok
}

// Types returns the essence of every media type the reference table
// classifies as compressible. The returned slice is a copy in table order;
// callers may sort or modify it freely.
func Types() []string {
	types := make([]string, 0, len(tableEntries))
	for _, e := range tableEntries {
		if e.compressible {
			types = append(types, e.essence)
		}
	}
	return types
}

// IsCompressible reports whether content of the given media type benefits
// from general-purpose compression. The input may carry parameters
// ("text/html; charset=utf-8") and mixed case; it is parsed with
// mime.ParseMediaType, which lowercases the type and strips parameters.
// Malformed input and media types absent from the reference table both
// report false: unknown means don't waste cycles compressing.
//
// IsCompressible never returns an error. Every string, including the empty
// string and arbitrary binary garbage, yields a boolean.
func IsCompressible(contentType string) bool {
	essence, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if c, ok := table()[essence]; ok {
		return c
	}
	return false
}
