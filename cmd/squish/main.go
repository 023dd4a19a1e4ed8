// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command squish classifies media types, compresses files, and serves
// static trees with negotiated response compression.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/yeetrun/squish/pkg/codecutil"
	"github.com/yeetrun/squish/pkg/compress"
	"github.com/yeetrun/squish/pkg/compressible"
	"github.com/yeetrun/squish/pkg/mtype"
	"github.com/yeetrun/squish/pkg/server"
	"github.com/yeetrun/squish/pkg/tarball"
)

var rootCmd = &cobra.Command{
	Use:           "squish",
	Short:         "Media-type compressibility toolkit",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(unpackCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if err != errExit {
			fmt.Fprintln(os.Stderr, "squish:", err)
		}
		os.Exit(1)
	}
}

var (
	checkJSON bool

	checkCmd = &cobra.Command{
		Use:   "check [media-type]...",
		Short: "Classify media types as compressible or not",
		Long: `Classify each media-type argument as compressible or not.
With no arguments, media types are read from stdin, one per line.
Exits nonzero when any input is not compressible.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := args
			if len(inputs) == 0 {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					if line := strings.TrimSpace(scanner.Text()); line != "" {
						inputs = append(inputs, line)
					}
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
			}

			allCompressible := true
			for _, in := range inputs {
				ok := compressible.IsCompressible(in)
				if !ok {
					allCompressible = false
				}
				printClassification(cmd, in, ok, checkJSON)
			}
			if !allCompressible {
				return errExit
			}
			return nil
		},
	}
)

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "emit one JSON object per input")
}

// errExit forces a nonzero exit without an extra error line; the per-line
// output already names the offenders.
var errExit = fmt.Errorf("not compressible")

func printClassification(cmd *cobra.Command, mediaType string, ok, asJSON bool) {
	if asJSON {
		out, _ := json.Marshal(struct {
			MediaType    string `json:"mediaType"`
			Compressible bool   `json:"compressible"`
		}{mediaType, ok})
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return
	}
	verdict := color.GreenString("compressible")
	if !ok {
		verdict = color.RedString("not compressible")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", mediaType, verdict)
}

var (
	detectJSON bool

	detectCmd = &cobra.Command{
		Use:   "detect <file>...",
		Short: "Detect the media type of files and classify them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				mt, err := mtype.DetectFile(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if detectJSON {
					out, _ := json.Marshal(struct {
						File         string `json:"file"`
						MediaType    string `json:"mediaType"`
						Compressible bool   `json:"compressible"`
					}{path, mt, compressible.IsCompressible(mt)})
					fmt.Fprintln(cmd.OutOrStdout(), string(out))
					continue
				}
				verdict := color.GreenString("compressible")
				if !compressible.IsCompressible(mt) {
					verdict = color.RedString("not compressible")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", path, mt, verdict)
			}
			return nil
		},
	}
)

func init() {
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "emit one JSON object per file")
}

var (
	typesPrefix string

	typesCmd = &cobra.Command{
		Use:   "types",
		Short: "List the compressible media-type reference table",
		RunE: func(cmd *cobra.Command, args []string) error {
			types := compressible.Types()
			sort.Strings(types)
			for _, mt := range types {
				if typesPrefix != "" && !strings.HasPrefix(mt, typesPrefix) {
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), mt)
			}
			return nil
		},
	}
)

func init() {
	typesCmd.Flags().StringVar(&typesPrefix, "prefix", "", "only list types with this prefix")
}

var (
	packEncoding string

	packCmd = &cobra.Command{
		Use:   "pack <src> <dst>",
		Short: "Compress a file, or archive a directory as a compressed tarball",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dst := args[0], args[1]
			info, err := os.Stat(src)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return codecutil.CompressFile(src, dst, packEncoding)
			}
			out, err := os.Create(dst)
			if err != nil {
				return err
			}
			if err := tarball.Create(out, src, packEncoding); err != nil {
				out.Close()
				return err
			}
			return out.Close()
		},
	}

	unpackEncoding string
	unpackDir      bool

	unpackCmd = &cobra.Command{
		Use:   "unpack <src> <dst>",
		Short: "Decompress a file, or extract a compressed tarball",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dst := args[0], args[1]
			if !unpackDir {
				return codecutil.DecompressFile(src, dst, unpackEncoding)
			}
			in, err := os.Open(src)
			if err != nil {
				return err
			}
			defer in.Close()
			return tarball.Extract(in, dst, unpackEncoding)
		},
	}
)

func init() {
	packCmd.Flags().StringVarP(&packEncoding, "encoding", "e", compress.EncodingZstd,
		"encoding to use (zstd, br, gzip, deflate)")
	unpackCmd.Flags().StringVarP(&unpackEncoding, "encoding", "e", compress.EncodingZstd,
		"encoding to use (zstd, br, gzip, deflate)")
	unpackCmd.Flags().BoolVarP(&unpackDir, "dir", "d", false,
		"treat src as a compressed tarball and extract it into dst")
}

var (
	serveConfig string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve a static file tree with response compression",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := server.LoadConfig(serveConfig)
			if err != nil {
				return err
			}
			return server.ListenAndServe(cfg)
		},
	}
)

func init() {
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", server.ConfigName,
		"path to the squish.toml config file")
}
