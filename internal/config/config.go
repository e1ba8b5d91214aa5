// Package config loads runtime configuration from defaults, an optional YAML
// file, STYLEGUIDE_* environment variables and explicit overrides, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. Nested keys are separated
// by a double underscore: STYLEGUIDE_SERVER__ADDRESS sets server.address.
const EnvPrefix = "STYLEGUIDE_"

const (
	defaultAddress         = ":8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultSiteTitle       = "REBASE"
	defaultCSRFCookie      = "csrf_token"
	defaultCSRFHeader      = "X-CSRF-Token"
	defaultMaxSessions     = 256
	defaultSessionTTL      = 30 * time.Minute
	defaultSweepInterval   = time.Minute
	defaultLogLevel        = "info"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Site       SiteConfig       `koanf:"site"`
	CSRF       CSRFConfig       `koanf:"csrf"`
	CORS       CORSConfig       `koanf:"cors"`
	Playground PlaygroundConfig `koanf:"playground"`
	Log        LogConfig        `koanf:"log"`
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Address         string        `koanf:"address"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SiteConfig points at the content the site renders. Empty paths select the
// embedded defaults.
type SiteConfig struct {
	Title          string `koanf:"title"`
	CatalogFile    string `koanf:"catalog_file"`
	IconsDir       string `koanf:"icons_dir"`
	StylesheetFile string `koanf:"stylesheet_file"`
	Environment    string `koanf:"environment"`
}

// CSRFConfig controls the double-submit cookie.
type CSRFConfig struct {
	CookieName string `koanf:"cookie_name"`
	HeaderName string `koanf:"header_name"`
	Secure     bool   `koanf:"secure"`
}

// CORSConfig lists origins allowed to call the JSON API.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// PlaygroundConfig bounds the server-side modal sessions.
type PlaygroundConfig struct {
	MaxSessions   int           `koanf:"max_sessions"`
	SessionTTL    time.Duration `koanf:"session_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string `koanf:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         defaultAddress,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Site: SiteConfig{
			Title:       defaultSiteTitle,
			Environment: "Development",
		},
		CSRF: CSRFConfig{
			CookieName: defaultCSRFCookie,
			HeaderName: defaultCSRFHeader,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Playground: PlaygroundConfig{
			MaxSessions:   defaultMaxSessions,
			SessionTTL:    defaultSessionTTL,
			SweepInterval: defaultSweepInterval,
		},
		Log: LogConfig{Level: defaultLogLevel},
	}
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	file      string
	useEnv    bool
	overrides map[string]any
}

// WithConfigFile reads the YAML file at path. A missing file is an error.
func WithConfigFile(path string) Option {
	return func(o *loaderOptions) {
		o.file = strings.TrimSpace(path)
	}
}

// WithoutEnv disables STYLEGUIDE_* environment overrides.
func WithoutEnv() Option {
	return func(o *loaderOptions) {
		o.useEnv = false
	}
}

// WithOverrides sets dotted keys (e.g. "server.address") after every other
// source has been applied.
func WithOverrides(values map[string]any) Option {
	return func(o *loaderOptions) {
		if o.overrides == nil {
			o.overrides = make(map[string]any, len(values))
		}
		for k, v := range values {
			o.overrides[k] = v
		}
	}
}

// Load assembles and validates the configuration.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{useEnv: true}
	for _, opt := range opts {
		opt(&options)
	}

	k := koanf.New(".")

	if options.file != "" {
		if _, err := os.Stat(options.file); err != nil {
			return Config{}, fmt.Errorf("accessing config %s: %w", options.file, err)
		}
		if err := k.Load(file.Provider(options.file), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", options.file, err)
		}
	}

	if options.useEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return Config{}, fmt.Errorf("loading env overrides: %w", err)
		}
	}

	keys := make([]string, 0, len(options.overrides))
	for key := range options.overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := k.Set(key, options.overrides[key]); err != nil {
			return Config{}, fmt.Errorf("applying override %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyDefaults fills zero-valued fields from Default.
func (c *Config) applyDefaults() {
	d := Default()
	setString(&c.Server.Address, d.Server.Address)
	setDuration(&c.Server.ReadTimeout, d.Server.ReadTimeout)
	setDuration(&c.Server.WriteTimeout, d.Server.WriteTimeout)
	setDuration(&c.Server.IdleTimeout, d.Server.IdleTimeout)
	setDuration(&c.Server.ShutdownTimeout, d.Server.ShutdownTimeout)
	setString(&c.Site.Title, d.Site.Title)
	setString(&c.Site.Environment, d.Site.Environment)
	setString(&c.CSRF.CookieName, d.CSRF.CookieName)
	setString(&c.CSRF.HeaderName, d.CSRF.HeaderName)
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = d.CORS.AllowedOrigins
	}
	if c.Playground.MaxSessions == 0 {
		c.Playground.MaxSessions = d.Playground.MaxSessions
	}
	setDuration(&c.Playground.SessionTTL, d.Playground.SessionTTL)
	setDuration(&c.Playground.SweepInterval, d.Playground.SweepInterval)
	setString(&c.Log.Level, d.Log.Level)
}

func setString(dst *string, fallback string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = fallback
	}
}

func setDuration(dst *time.Duration, fallback time.Duration) {
	if *dst == 0 {
		*dst = fallback
	}
}

// envKey maps STYLEGUIDE_PLAYGROUND__MAX_SESSIONS to playground.max_sessions.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that the configuration contains usable values.
func (c Config) Validate() error {
	var fields []string
	if strings.TrimSpace(c.Server.Address) == "" {
		fields = append(fields, "server.address")
	}
	for name, d := range map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.idle_timeout":     c.Server.IdleTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d <= 0 {
			fields = append(fields, name)
		}
	}
	if strings.TrimSpace(c.CSRF.CookieName) == "" {
		fields = append(fields, "csrf.cookie_name")
	}
	if strings.TrimSpace(c.CSRF.HeaderName) == "" {
		fields = append(fields, "csrf.header_name")
	}
	if c.Playground.MaxSessions <= 0 {
		fields = append(fields, "playground.max_sessions")
	}
	if c.Playground.SessionTTL <= 0 {
		fields = append(fields, "playground.session_ttl")
	}
	if c.Playground.SweepInterval <= 0 {
		fields = append(fields, "playground.sweep_interval")
	}
	if !validLogLevels[strings.ToLower(strings.TrimSpace(c.Log.Level))] {
		fields = append(fields, "log.level")
	}
	if len(fields) == 0 {
		return nil
	}
	sort.Strings(fields)
	return &ValidationError{fields: fields}
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
