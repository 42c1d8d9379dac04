package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// config is the merged result of the configuration file and flags.
type config struct {
	ProtoDirs []string
	Schemas   []string
	Digest    string
	MaxDepth  int
	Format    string
	Input     string
	Hex       bool
	Verbose   bool
}

type fileConfig struct {
	ProtoDirs []string `toml:"proto_dirs"`
	Schemas   []string `toml:"schemas"`
	Digest    string   `toml:"digest"`
	MaxDepth  int      `toml:"max_depth"`
	Format    string   `toml:"format"`
	Input     string   `toml:"input"`
	Hex       bool     `toml:"hex"`
	Verbose   bool     `toml:"verbose"`
}

func defaultConfig() config {
	return config{Format: "json", Input: "json"}
}

// loadConfig reads a TOML configuration file. Relative paths in it are
// resolved against the file's directory.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load config: unknown key %s", undecoded[0])
	}
	base := filepath.Dir(path)

	if meta.IsDefined("proto_dirs") {
		for _, dir := range raw.ProtoDirs {
			cfg.ProtoDirs = append(cfg.ProtoDirs, resolve(base, dir))
		}
	}
	if meta.IsDefined("schemas") {
		for _, s := range raw.Schemas {
			cfg.Schemas = append(cfg.Schemas, strings.TrimSpace(s))
		}
	}
	if meta.IsDefined("digest") {
		cfg.Digest = strings.TrimSpace(raw.Digest)
	}
	if meta.IsDefined("max_depth") {
		if raw.MaxDepth <= 0 {
			return config{}, fmt.Errorf("load config: max_depth must be positive, got %d", raw.MaxDepth)
		}
		cfg.MaxDepth = raw.MaxDepth
	}
	if meta.IsDefined("format") {
		cfg.Format = strings.TrimSpace(raw.Format)
	}
	if meta.IsDefined("input") {
		cfg.Input = strings.TrimSpace(raw.Input)
	}
	if meta.IsDefined("hex") {
		cfg.Hex = raw.Hex
	}
	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}
	return cfg, nil
}

func resolve(base, path string) string {
	path = strings.TrimSpace(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
