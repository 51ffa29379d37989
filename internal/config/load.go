package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file values.
const (
	EnvThreads        = "NETSPY_THREADS"
	EnvDomain         = "NETSPY_DOMAIN"
	EnvLogFormat      = "NETSPY_LOG_FORMAT"
	EnvLogLevel       = "NETSPY_LOG_LEVEL"
	EnvSimulation     = "NETSPY_SIMULATION"
	EnvSimInterval    = "NETSPY_SIMULATION_INTERVAL"
	EnvTracing        = "NETSPY_TRACING"
	EnvZipkinURL      = "NETSPY_ZIPKIN_URL"
	EnvReloadWatching = "NETSPY_RELOAD_WATCH"
)

// LoadEnv loads .env files into the process environment. Missing files are
// ignored and variables already set are kept.
func LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &ConfigurationError{Field: "env", Message: "cannot load environment file", Cause: err}
	}
	return nil
}

// Load reads the YAML file at path from fsys on top of Default, applies
// environment overrides and validates the result. An empty path skips the
// file.
func Load(fsys afero.Fs, path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, &ConfigurationError{Field: "file", Message: "cannot read " + path, Cause: err}
		}
		if err := decode(data, cfg); err != nil {
			return nil, &ConfigurationError{Field: "file", Message: "cannot parse " + path, Cause: err}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if err := envInt(EnvThreads, &cfg.Threads); err != nil {
		return err
	}
	if err := envInt(EnvDomain, &cfg.Domain); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		cfg.Logging.Format = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.Logging.Level = v
	}
	if err := envBool(EnvSimulation, &cfg.Simulation.Enabled); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvSimInterval); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigurationError{Field: EnvSimInterval, Message: "not a duration", Cause: err}
		}
		cfg.Simulation.Interval = d
	}
	if err := envBool(EnvTracing, &cfg.Tracing.Enabled); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvZipkinURL); ok {
		cfg.Tracing.ZipkinURL = v
	}
	return envBool(EnvReloadWatching, &cfg.Reload.Watch)
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return &ConfigurationError{Field: key, Message: "not an integer", Cause: err}
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return &ConfigurationError{Field: key, Message: "not a boolean", Cause: err}
	}
	*dst = b
	return nil
}
