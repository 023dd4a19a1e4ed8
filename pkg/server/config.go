// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/yeetrun/squish/pkg/compress"
)

const (
	// ConfigName is the default config file name looked up next to the
	// working directory.
	ConfigName    = "squish.toml"
	configVersion = 1
)

// Config is the squish.toml schema.
type Config struct {
	Version int    `toml:"version,omitempty"`
	Listen  string `toml:"listen,omitempty"`
	Root    string `toml:"root,omitempty"`

	Compression CompressionConfig `toml:"compression"`
}

// CompressionConfig tunes the response-compression middleware.
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, worth compressing.
	MinSize int `toml:"min_size,omitempty"`
	// Disabled turns response compression off entirely.
	Disabled bool `toml:"disabled,omitempty"`
}

// DefaultConfig returns the configuration used when no squish.toml exists.
func DefaultConfig() *Config {
	return &Config{
		Version: configVersion,
		Listen:  ":8080",
		Root:    ".",
		Compression: CompressionConfig{
			MinSize: compress.DefaultMinSize,
		},
	}
}

// LoadConfig reads the config file at path, filling unset fields with
// defaults. A missing file yields the defaults and no error; a malformed
// file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if cfg.Version != configVersion {
		return nil, fmt.Errorf("unsupported config version %d in %s", cfg.Version, path)
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Compression.MinSize < 0 {
		return nil, fmt.Errorf("compression.min_size must not be negative in %s", path)
	}

	return cfg, nil
}
