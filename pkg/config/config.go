package config

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/beepf/topoconsole/pkg/cache"
	"github.com/beepf/topoconsole/pkg/client"
	"github.com/beepf/topoconsole/pkg/errors"
	"github.com/beepf/topoconsole/pkg/layout"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	DefaultListen         = ":3000"
	DefaultBaseURL        = "http://127.0.0.1:8080"
	DefaultRequestTimeout = 60 * time.Second
	DefaultLogLevel       = "info"

	// FileName is the config file looked up under the user config dir.
	FileName = "config.toml"
)

// =============================================================================
// Types
// =============================================================================

// Config is the full topoconsole configuration.
type Config struct {
	Server  Server  `toml:"server"`
	Backend Backend `toml:"backend"`
	Layout  Layout  `toml:"layout"`
	Cache   Cache   `toml:"cache"`
	Log     Log     `toml:"log"`
}

// Server configures the console server.
type Server struct {
	Listen         string   `toml:"listen"`
	AllowedOrigins []string `toml:"allowed_origins"`
	// RefreshInterval re-fetches the topology for every open session.
	// Zero disables timed refresh.
	RefreshInterval Duration `toml:"refresh_interval"`
	RequestTimeout  Duration `toml:"request_timeout"`
}

// Backend configures the eBPF platform backend client.
type Backend struct {
	BaseURL string            `toml:"base_url"`
	Timeout Duration          `toml:"timeout"`
	Headers map[string]string `toml:"headers"`
}

// Layout sets the initial view.
type Layout struct {
	DefaultMode string  `toml:"default_mode"`
	Width       float64 `toml:"width"`
	Height      float64 `toml:"height"`
	Seed        uint64  `toml:"seed"`
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	Prefix          string `toml:"prefix"`
	RedisAddr       string `toml:"redis_addr"`
	RedisPassword   string `toml:"redis_password"`
	RedisDB         int    `toml:"redis_db"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a string ("30s", "5m") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// =============================================================================
// Loading
// =============================================================================

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Listen:         DefaultListen,
			AllowedOrigins: []string{"*"},
			RequestTimeout: Duration{DefaultRequestTimeout},
		},
		Backend: Backend{
			BaseURL: DefaultBaseURL,
			Timeout: Duration{client.DefaultTimeout},
		},
		Layout: Layout{
			DefaultMode: string(layout.DefaultMode),
			Width:       layout.DefaultWidth,
			Height:      layout.DefaultHeight,
			Seed:        layout.DefaultSeed,
		},
		Cache: Cache{
			Backend:         cache.BackendFile,
			MongoCollection: cache.DefaultMongoCollection,
		},
		Log: Log{Level: DefaultLogLevel},
	}
}

// DefaultPath returns the default config file location, such as
// ~/.config/topoconsole/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "topoconsole", FileName), nil
}

// Load reads the config file at path on top of the defaults.
//
// An empty path means DefaultPath, which may be absent. An explicit path
// must exist. Unknown keys are rejected so typos do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && stderrors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "load config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes TOML from data on top of the defaults.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "unknown config key %s", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks every section.
func (c Config) Validate() error {
	if c.Server.Listen == "" {
		return errors.New(errors.ErrCodeInvalidInput, "server.listen is required")
	}
	if c.Server.RefreshInterval.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server.refresh_interval must not be negative")
	}
	if err := errors.ValidateURL(c.Backend.BaseURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "backend.base_url")
	}
	if c.Backend.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "backend.timeout must not be negative")
	}
	if _, err := c.Mode(); err != nil {
		return err
	}
	if err := errors.ValidateDimensions(c.Layout.Width, c.Layout.Height); err != nil {
		return err
	}
	if b := strings.ToLower(c.Cache.Backend); b != "" && !slices.Contains(cache.Backends, b) && b != "off" && b != "null" {
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend %q (want one of %s)", c.Cache.Backend, strings.Join(cache.Backends, ", "))
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Mode returns the parsed default layout mode.
func (c Config) Mode() (layout.Mode, error) {
	if c.Layout.DefaultMode == "" {
		return layout.DefaultMode, nil
	}
	return layout.ParseMode(c.Layout.DefaultMode)
}

// Level returns the parsed log level.
func (c Config) Level() (log.Level, error) {
	if c.Log.Level == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel, errors.Wrap(errors.ErrCodeInvalidInput, err, "log.level")
	}
	return lvl, nil
}

// CacheOptions converts the cache section for cache.Open.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:         strings.ToLower(c.Cache.Backend),
		Dir:             c.Cache.Dir,
		Prefix:          c.Cache.Prefix,
		RedisAddr:       c.Cache.RedisAddr,
		RedisPassword:   c.Cache.RedisPassword,
		RedisDB:         c.Cache.RedisDB,
		MongoURI:        c.Cache.MongoURI,
		MongoDatabase:   c.Cache.MongoDatabase,
		MongoCollection: c.Cache.MongoCollection,
	}
}

// ClientOptions converts the backend section for client.New.
func (c Config) ClientOptions() []client.Option {
	return []client.Option{
		client.WithTimeout(c.Backend.Timeout.Duration),
		client.WithHeaders(c.Backend.Headers),
	}
}
