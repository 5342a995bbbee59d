// Package config loads prereqgraph settings.
//
// Settings come from three places, later ones winning:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file, by default $XDG_CONFIG_HOME/prereqgraph/config.toml
//  3. PREREQGRAPH_* environment variables, optionally seeded from a .env file
//
// Example config.toml:
//
//	[source]
//	kind = "postgres"
//	database_url = "postgres://localhost/courses?sslmode=disable"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[layout]
//	direction = "LR"
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
	"github.com/matzehuels/prereqgraph/pkg/pipeline"
)

const appName = "prereqgraph"

// FileName is the config file name inside the config directory.
const FileName = "config.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PREREQGRAPH_"

// Source kinds.
const (
	SourceLocal    = "local"
	SourcePostgres = "postgres"
	SourceMongo    = "mongo"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// =============================================================================
// Config
// =============================================================================

// Config is the complete application configuration.
type Config struct {
	Source SourceConfig     `toml:"source"`
	Cache  CacheConfig      `toml:"cache"`
	Server ServerConfig     `toml:"server"`
	Layout pipeline.Options `toml:"layout"`
	Log    LogConfig        `toml:"log"`
}

// SourceConfig selects where raw prerequisite records are read from.
type SourceConfig struct {
	Kind string `toml:"kind"`

	// Dir is the record directory for the local source.
	Dir string `toml:"dir"`

	DatabaseURL string `toml:"database_url"`

	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend string `toml:"backend"`
	// Dir is the file cache directory. Empty means the XDG cache directory.
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	// Prefix scopes all keys, so several deployments can share one Redis.
	Prefix string `toml:"prefix"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	// Metrics enables GET /metrics.
	Metrics bool `toml:"metrics"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration: records from ./data, a file
// cache and the API on :8080.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:          SourceLocal,
			Dir:           "data",
			MongoDatabase: appName,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Metrics:         true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load builds the configuration from defaults, the TOML file at path and the
// environment. An empty path means [DefaultPath], which may be absent; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile copies variables from a .env file into the process
// environment. Variables already set are kept. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "load %s", path)
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/prereqgraph/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, FileName), nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return perrors.New(perrors.ErrCodeInvalidFormat, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// =============================================================================
// Environment
// =============================================================================

type envVar struct {
	name string
	set  func(c *Config, v string) error
}

func str(field func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

var envVars = []envVar{
	{"SOURCE", str(func(c *Config) *string { return &c.Source.Kind })},
	{"DATA_DIR", str(func(c *Config) *string { return &c.Source.Dir })},
	{"DATABASE_URL", str(func(c *Config) *string { return &c.Source.DatabaseURL })},
	{"MONGO_URI", str(func(c *Config) *string { return &c.Source.MongoURI })},
	{"MONGO_DATABASE", str(func(c *Config) *string { return &c.Source.MongoDatabase })},
	{"CACHE", str(func(c *Config) *string { return &c.Cache.Backend })},
	{"CACHE_DIR", str(func(c *Config) *string { return &c.Cache.Dir })},
	{"REDIS_URL", str(func(c *Config) *string { return &c.Cache.RedisURL })},
	{"CACHE_PREFIX", str(func(c *Config) *string { return &c.Cache.Prefix })},
	{"ADDR", str(func(c *Config) *string { return &c.Server.Addr })},
	{"LOG_LEVEL", str(func(c *Config) *string { return &c.Log.Level })},
	{"DIRECTION", str(func(c *Config) *string { return &c.Layout.Direction })},
	{"METRICS", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Server.Metrics = b
		return nil
	}},
	{"SHUTDOWN_TIMEOUT", func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.Server.ShutdownTimeout = d
		return nil
	}},
}

// ApplyEnv overrides fields from PREREQGRAPH_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, ev := range envVars {
		name := EnvPrefix + ev.name
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := ev.set(c, strings.TrimSpace(v)); err != nil {
			return perrors.Wrap(perrors.ErrCodeInvalidInput, err, "%s=%q", name, v)
		}
	}
	return nil
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks that the selected source and cache are fully specified.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceLocal:
		if c.Source.Dir == "" {
			return perrors.New(perrors.ErrCodeInvalidInput, "source.dir is required for the local source")
		}
	case SourcePostgres:
		if c.Source.DatabaseURL == "" {
			return perrors.New(perrors.ErrCodeInvalidInput, "source.database_url is required for the postgres source")
		}
	case SourceMongo:
		if c.Source.MongoURI == "" || c.Source.MongoDatabase == "" {
			return perrors.New(perrors.ErrCodeInvalidInput, "source.mongo_uri and source.mongo_database are required for the mongo source")
		}
	default:
		return perrors.New(perrors.ErrCodeInvalidInput,
			"invalid source kind: %q (must be one of: local, postgres, mongo)", c.Source.Kind)
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return perrors.New(perrors.ErrCodeInvalidInput, "cache.redis_url is required for the redis cache")
		}
	default:
		return perrors.New(perrors.ErrCodeInvalidInput,
			"invalid cache backend: %q (must be one of: file, redis, none)", c.Cache.Backend)
	}

	if err := c.Layout.ValidateForLayout(); err != nil {
		return err
	}
	return nil
}
