// Package config loads perspectives settings from a TOML file.
//
// Every field has a default, so a missing file is not an error unless the
// caller named it explicitly. A typical file:
//
//	[render]
//	size = 600
//	warp = false
//	background = "transparent"
//
//	[server]
//	port = 8080
//	bind_all = true
//
//	[cache]
//	backend = "redis"
//	redis_addr = "redis://localhost:6379/0"
//	prefix = "staging:"
//	ttl = "24h"
//
//	[live]
//	debounce = "300ms"
package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/perspectives/pkg/cache"
	"github.com/matzehuels/perspectives/pkg/errors"
	pio "github.com/matzehuels/perspectives/pkg/io"
	"github.com/matzehuels/perspectives/pkg/pipeline"
)

// appName names the XDG subdirectory.
const appName = "perspectives"

// fileName is the config file name inside the XDG directory.
const fileName = "config.toml"

// maxKeyPrefix bounds [cache] prefix; Redis and Mongo keys stay short.
const maxKeyPrefix = 64

// Defaults not owned by another package.
const (
	DefaultPort     = 3030
	DefaultDir      = "www"
	DefaultDebounce = 500 * time.Millisecond
)

// Config is the full set of settings.
type Config struct {
	Render RenderConfig `toml:"render"`
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Live   LiveConfig   `toml:"live"`
}

// RenderConfig holds default render options.
type RenderConfig struct {
	Size         int     `toml:"size"`
	Warp         bool    `toml:"warp"`
	Shrink       float64 `toml:"shrink"`
	ScaleDivisor float64 `toml:"scale_divisor"`
	Background   string  `toml:"background"`
	Format       string  `toml:"format"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port    int    `toml:"port"`
	Dir     string `toml:"dir"`
	BindAll bool   `toml:"bind_all"`
}

// CacheConfig selects the artifact cache backend.
type CacheConfig struct {
	Backend       string        `toml:"backend"`
	TTL           time.Duration `toml:"ttl"`
	RedisAddr     string        `toml:"redis_addr"`
	MongoURI      string        `toml:"mongo_uri"`
	MongoDatabase string        `toml:"mongo_database"`

	// Prefix is prepended to every cache key so deployments sharing one
	// Redis or Mongo backend keep separate entries.
	Prefix string `toml:"prefix"`
}

// LiveConfig holds the live preview settings.
type LiveConfig struct {
	Debounce time.Duration `toml:"debounce"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Size:         pipeline.DefaultCanvasSize,
			Warp:         true,
			Shrink:       pipeline.DefaultShrinkFactor,
			ScaleDivisor: pipeline.DefaultScaleDivisor,
			Background:   pipeline.DefaultBackground,
			Format:       string(pipeline.DefaultFormat),
		},
		Server: ServerConfig{
			Port: DefaultPort,
			Dir:  DefaultDir,
		},
		Cache: CacheConfig{
			Backend:       cache.BackendFile,
			TTL:           cache.TTLArtifact,
			MongoDatabase: cache.DefaultMongoDatabase,
		},
		Live: LiveConfig{
			Debounce: DefaultDebounce,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/perspectives/config.toml, falling
// back to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load reads the file at path over the defaults. An empty path loads
// DefaultPath if it exists and the defaults otherwise; a named file that
// does not exist is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			if !explicit {
				return Default(), nil
			}
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileRead, err, "could not read %s", path)
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result. Unknown
// keys are rejected so typos do not go unnoticed.
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	opts := c.RenderOptions("")
	if err := opts.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[render]")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New(errors.ErrCodeInvalidConfig, "[server] port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.Dir == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "[server] dir cannot be empty")
	}

	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendNone, cache.BackendRedis:
	case cache.BackendMongo:
		if c.Cache.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "[cache] mongo backend requires mongo_uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"[cache] unknown backend %q (must be one of: file, none, redis, mongo)", c.Cache.Backend)
	}
	if len(c.Cache.Prefix) > maxKeyPrefix {
		return errors.New(errors.ErrCodeInvalidConfig, "[cache] prefix longer than %d bytes", maxKeyPrefix)
	}
	if strings.IndexFunc(c.Cache.Prefix, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "[cache] prefix %q contains whitespace or control characters", c.Cache.Prefix)
	}
	if c.Cache.TTL <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "[cache] ttl must be positive, got %s", c.Cache.TTL)
	}

	if c.Live.Debounce < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "[live] debounce cannot be negative, got %s", c.Live.Debounce)
	}
	return nil
}

// RenderOptions returns pipeline options for text seeded from [render].
func (c *Config) RenderOptions(text string) pipeline.Options {
	return pipeline.Options{
		Text:         text,
		CanvasSize:   c.Render.Size,
		SkipWarp:     !c.Render.Warp,
		ShrinkFactor: c.Render.Shrink,
		ScaleDivisor: c.Render.ScaleDivisor,
		Background:   c.Render.Background,
		Format:       pio.Format(strings.ToLower(c.Render.Format)),
	}
}

// CacheOptions returns backend options for [cache]. dir is the file cache
// directory, which is not configurable here.
func (c *Config) CacheOptions(dir string) cache.Options {
	return cache.Options{
		Backend:       c.Cache.Backend,
		Dir:           dir,
		RedisAddr:     c.Cache.RedisAddr,
		MongoURI:      c.Cache.MongoURI,
		MongoDatabase: c.Cache.MongoDatabase,
	}
}

// Keyer returns the cache keyer for [cache], scoped by the prefix if set.
func (c *Config) Keyer() cache.Keyer {
	if c.Cache.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Cache.Prefix)
}

// ServerAddr returns the listen address for [server].
func (c *Config) ServerAddr() string {
	host := "127.0.0.1"
	if c.Server.BindAll {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", host, c.Server.Port)
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
