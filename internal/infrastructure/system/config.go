// Package system loads the hotload configuration file (hotload.yaml).
package system

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	apperrors "github.com/reglet-dev/hotload/internal/application/errors"
	"github.com/reglet-dev/hotload/internal/domain/values"
)

// DefaultConfigFile is read when no --config flag is given.
const DefaultConfigFile = "hotload.yaml"

// DefaultDebounce coalesces bursts of file events into one reload.
const DefaultDebounce = 250 * time.Millisecond

// Config represents hotload.yaml.
type Config struct {
	Bootstrap map[string]string `yaml:"bootstrap"`
	Loader    LoaderConfig      `yaml:"loader"`
	Log       LogConfig         `yaml:"log"`
	Watch     WatchConfig       `yaml:"watch"`
	Parent    ParentConfig      `yaml:"parent"`
	Sources   []SourceConfig    `yaml:"sources"`
	Wasm      WasmConfig        `yaml:"wasm"`
}

// LoaderConfig configures each reloadable loader generation.
type LoaderConfig struct {
	// RootPackage is the package the loader is authoritative for. Absent is
	// an error; an empty string makes every module a target.
	RootPackage     *string  `yaml:"root_package"`
	Suffix          string   `yaml:"suffix"`
	Preload         []string `yaml:"preload"`
	LenientPackages bool     `yaml:"lenient_packages"`
}

// SourceKind selects a byte source backend.
type SourceKind string

const (
	SourceKindFS    SourceKind = "fs"
	SourceKindRedis SourceKind = "redis"
	SourceKindGCS   SourceKind = "gcs"
	SourceKindOCI   SourceKind = "oci"
)

// SourceConfig describes one byte source. Which fields apply depends on Kind.
type SourceConfig struct {
	Kind SourceKind `yaml:"kind"`

	// fs
	Path string `yaml:"path"`

	// redis
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// gcs
	Bucket          string `yaml:"bucket"`
	EmulatorHost    string `yaml:"emulator_host"`
	CredentialsFile string `yaml:"credentials_file"`

	// redis and gcs
	Prefix string `yaml:"prefix"`

	// oci
	Reference string `yaml:"reference"`
	PlainHTTP bool   `yaml:"plain_http"`

	// Retries of transient failures for network sources; 0 disables.
	Retries    int    `yaml:"retries"`
	RetryDelay string `yaml:"retry_delay"`
}

// ParentConfig configures the long-lived library loader that sits between
// the reloadable generations and the bootstrap modules.
type ParentConfig struct {
	Sources []SourceConfig `yaml:"sources"`
}

// WasmConfig configures the wazero runtime.
type WasmConfig struct {
	// MemoryLimitMB: 0 keeps the default, -1 removes the limit.
	MemoryLimitMB int `yaml:"memory_limit_mb"`
}

// WatchConfig configures reload triggers.
type WatchConfig struct {
	// Debounce is a Go duration string such as "250ms".
	Debounce string `yaml:"debounce"`
	// RedisChannel, when set, reloads on every message published to it.
	RedisChannel string `yaml:"redis_channel"`
	// RedisAddr is the server carrying RedisChannel.
	RedisAddr string `yaml:"redis_addr"`
}

// LogConfig selects the log backend.
type LogConfig struct {
	// Backend is "slog" (default) or "zap".
	Backend string `yaml:"backend"`
}

// ConfigLoader loads configuration from disk.
type ConfigLoader struct{}

// NewConfigLoader creates a new config loader.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// DefaultConfig returns a Config with defaults for every optional field.
// RootPackage stays absent.
func DefaultConfig() *Config {
	return &Config{
		Bootstrap: make(map[string]string),
		Loader: LoaderConfig{
			Suffix:  values.DefaultSuffix,
			Preload: []string{},
		},
		Log:     LogConfig{Backend: "slog"},
		Watch:   WatchConfig{Debounce: DefaultDebounce.String()},
		Sources: []SourceConfig{},
		Wasm:    WasmConfig{MemoryLimitMB: 0},
	}
}

// Load loads configuration from path on top of DefaultConfig.
// If the file does not exist, DefaultConfig() is returned.
func (l *ConfigLoader) Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	//nolint:gosec // G304: path is the user-provided config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML on top of DefaultConfig.
func Parse(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if config.Loader.Suffix == "" {
		config.Loader.Suffix = values.DefaultSuffix
	}
	return config, nil
}

// Scope returns the loader scope. An absent root package is an
// InvalidArgumentError.
func (c *Config) Scope() (values.Scope, error) {
	if c.Loader.RootPackage == nil {
		return values.Scope{}, apperrors.NewInvalidArgumentError("rootPackage", "loader.root_package is not set")
	}
	return values.NewScope(strings.TrimSpace(*c.Loader.RootPackage)), nil
}

// DebounceDuration parses Watch.Debounce, falling back to DefaultDebounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	if c.Watch.Debounce == "" {
		return DefaultDebounce, nil
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, apperrors.NewConfigurationError("watch.debounce", "invalid duration", err)
	}
	if d < 0 {
		return 0, apperrors.NewConfigurationError("watch.debounce", "must not be negative", nil)
	}
	return d, nil
}

// Validate checks every field that can be checked without touching a backend.
func (c *Config) Validate() error {
	if _, err := c.Scope(); err != nil {
		return err
	}
	if _, err := c.DebounceDuration(); err != nil {
		return err
	}
	if len(c.Sources) == 0 {
		return apperrors.NewConfigurationError("sources", "at least one source is required", nil)
	}
	for i, src := range c.Sources {
		if err := src.Validate(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
	}
	for i, src := range c.Parent.Sources {
		if err := src.Validate(); err != nil {
			return fmt.Errorf("parent.sources[%d]: %w", i, err)
		}
	}
	for name := range c.Bootstrap {
		if _, err := values.NewModuleName(name); err != nil {
			return apperrors.NewConfigurationError("bootstrap", "invalid module name", err)
		}
	}
	switch c.Log.Backend {
	case "", "slog", "zap":
	default:
		return apperrors.NewConfigurationError("log.backend", fmt.Sprintf("unknown backend %q", c.Log.Backend), nil)
	}
	if c.Watch.RedisChannel != "" && c.Watch.RedisAddr == "" {
		return apperrors.NewConfigurationError("watch.redis_addr", "required when watch.redis_channel is set", nil)
	}
	return nil
}

// RetryDelayDuration parses RetryDelay; empty means the retry default.
func (s SourceConfig) RetryDelayDuration() (time.Duration, error) {
	if s.RetryDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.RetryDelay)
	if err != nil {
		return 0, apperrors.NewConfigurationError("retry_delay", "invalid duration", err)
	}
	return d, nil
}

// Validate checks the fields required by the source kind.
func (s SourceConfig) Validate() error {
	if s.Retries < 0 {
		return apperrors.NewConfigurationError("retries", "must not be negative", nil)
	}
	if _, err := s.RetryDelayDuration(); err != nil {
		return err
	}
	switch s.Kind {
	case SourceKindFS:
		if s.Path == "" {
			return apperrors.NewConfigurationError("path", "required for fs sources", nil)
		}
	case SourceKindRedis:
		if s.Addr == "" {
			return apperrors.NewConfigurationError("addr", "required for redis sources", nil)
		}
	case SourceKindGCS:
		if s.Bucket == "" {
			return apperrors.NewConfigurationError("bucket", "required for gcs sources", nil)
		}
	case SourceKindOCI:
		if s.Reference == "" {
			return apperrors.NewConfigurationError("reference", "required for oci sources", nil)
		}
	default:
		return apperrors.NewConfigurationError("kind", fmt.Sprintf("unknown source kind %q", s.Kind), nil)
	}
	return nil
}
