// Package config loads treemngr settings from a TOML file.
//
// Lookup order for the file: an explicit path (the --config flag), then
// $TREEMNGR_CONFIG, then ./treemngr.toml if it exists. With no file, the
// defaults apply. Command-line flags override whatever the file sets.
//
// Example treemngr.toml:
//
//	database      = "tree.db"
//	format        = "json"
//	log_level     = "debug"
//	history_limit = 50
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// EnvVar names the environment variable holding a config file path.
const EnvVar = "TREEMNGR_CONFIG"

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "treemngr.toml"

// Config holds every setting a config file may carry.
type Config struct {
	// Database is the SQLite file path.
	Database string `toml:"database"`

	// Format is the default output format: "text" or "json".
	Format string `toml:"format"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `toml:"log_level"`

	// HistoryLimit is the default number of journal entries `history` prints.
	HistoryLimit int `toml:"history_limit"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:     "treemngr.db",
		Format:       "text",
		LogLevel:     "warn",
		HistoryLimit: 20,
	}
}

var (
	validFormats   = []string{"text", "json"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Load resolves the config file (see package doc) and decodes it over the
// defaults. An explicit path or $TREEMNGR_CONFIG that does not exist is an
// error; a missing ./treemngr.toml is not.
func Load(explicit string) (Config, error) {
	path, required := explicit, explicit != ""
	if path == "" {
		if env := os.Getenv(EnvVar); env != "" {
			path, required = env, true
		} else {
			path = DefaultFile
		}
	}

	cfg, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return Default(), nil
	}
	return cfg, err
}

// LoadFile decodes the TOML file at path over the defaults and validates
// the result. Unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that enumerated settings hold known values.
func (c Config) Validate() error {
	if !contains(validFormats, c.Format) {
		return fmt.Errorf("invalid format %q (valid: %v)", c.Format, validFormats)
	}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q (valid: %v)", c.LogLevel, validLogLevels)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("invalid history_limit %d (must be >= 0)", c.HistoryLimit)
	}
	if c.Database == "" {
		return errors.New("database must not be empty")
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
