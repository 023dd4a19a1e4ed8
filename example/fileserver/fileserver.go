// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net/http"

	"github.com/yeetrun/squish/pkg/compress"
)

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		for i := 0; i < 100; i++ {
			fmt.Fprintln(w, "<p>Hello, world!</p>")
		}
	})
	http.ListenAndServe(":8080", compress.Handler(mux))
}
