package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/MrWong99/hillhouse/internal/mcp"
)

// Load builds the configuration: the YAML file at path (skipped when path
// is empty), then HILLHOUSE_* environment overrides, then defaults, then
// validation.
func Load(path string) (*Config, error) {
	if path == "" {
		return finish(&Config{}, true)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	cfg, err := parse(data, true)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. The environment is not consulted.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	if err := decode(r, cfg); err != nil {
		return nil, err
	}
	return finish(cfg, false)
}

// parse decodes data and completes the config, optionally applying the
// environment.
func parse(data []byte, withEnv bool) (*Config, error) {
	cfg := &Config{}
	if err := decode(bytes.NewReader(data), cfg); err != nil {
		return nil, err
	}
	return finish(cfg, withEnv)
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

func finish(cfg *Config, withEnv bool) (*Config, error) {
	if withEnv {
		if err := ApplyEnv(cfg); err != nil {
			return nil, err
		}
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields of cfg from HILLHOUSE_* environment variables.
// Unset variables leave the field untouched.
func ApplyEnv(cfg *Config) error {
	// TLS has no environment form; it stays exactly as the file set it.
	tls := cfg.Server.TLS
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	cfg.Server.TLS = tls
	return nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.Transport != "" && !cfg.Server.Transport.IsValid() {
		errs = append(errs, fmt.Errorf("server.transport %q is invalid; valid values: stdio, streamable-http", cfg.Server.Transport))
	}
	if cfg.Server.Transport == mcp.TransportStreamableHTTP && cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required when transport is streamable-http"))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
		if cfg.Server.ListenAddr == "" {
			errs = append(errs, errors.New("server.tls is set but server.listen_addr is empty"))
		}
	}

	// Storage
	switch cfg.Storage.Backend {
	case "":
	case BackendFile:
		if cfg.Storage.Dir == "" {
			errs = append(errs, errors.New("storage.dir is required for the file backend"))
		}
	case BackendSQLite:
		if cfg.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite backend"))
		}
	case BackendPostgres:
		if cfg.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is invalid; valid values: file, sqlite, postgres", cfg.Storage.Backend))
	}
	if cfg.Storage.Breaker.MaxFailures < 0 {
		errs = append(errs, errors.New("storage.breaker.max_failures must not be negative"))
	}
	if cfg.Storage.Breaker.ResetTimeout < 0 {
		errs = append(errs, errors.New("storage.breaker.reset_timeout must not be negative"))
	}

	// Catalog
	for _, f := range []struct{ name, path string }{
		{"catalog.rooms_path", cfg.Catalog.RoomsPath},
		{"catalog.characters_path", cfg.Catalog.CharactersPath},
	} {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
		}
	}

	return errors.Join(errs...)
}
