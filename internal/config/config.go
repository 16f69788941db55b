package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"catalogsync/internal/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultCatalogPath = "~/.local/share/catalogsync/catalog.db"
	DefaultAssetRoot   = "./public/assets"
	DefaultRulesPath   = "catalogsync.rules.yaml"
	DefaultServerAddr  = "127.0.0.1:8080"

	envPrefix = "CATALOGSYNC"
)

// Config holds all configuration for catalogsync
type Config struct {
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Matching MatchingConfig `mapstructure:"matching"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Apply    ApplyConfig    `mapstructure:"apply"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// CatalogConfig selects the catalog store
type CatalogConfig struct {
	Driver   string `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN      string `mapstructure:"dsn"`    // file path for sqlite, URL for postgres
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// AssetsConfig locates the asset pool
type AssetsConfig struct {
	Root      string   `mapstructure:"root"`
	URLPrefix string   `mapstructure:"url_prefix"`
	Patterns  []string `mapstructure:"patterns"`
}

// MatchingConfig tunes normalization and scoring
type MatchingConfig struct {
	Threshold      float64  `mapstructure:"threshold"`
	StopWords      []string `mapstructure:"stop_words"`
	MinTokenLength int      `mapstructure:"min_token_length"`
	Placeholders   []string `mapstructure:"placeholders"`
}

// RulesConfig points at the manual override table
type RulesConfig struct {
	Path   string `mapstructure:"path"`
	Editor string `mapstructure:"editor"` // overrides $EDITOR for `rules edit`
}

// ApplyConfig bounds the batch executor
type ApplyConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// ServerConfig is the HTTP listener
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Catalog: CatalogConfig{
			Driver:   DriverSQLite,
			DSN:      DefaultCatalogPath,
			Table:    "products",
			MaxConns: 4,
		},
		Assets: AssetsConfig{
			Root:      DefaultAssetRoot,
			URLPrefix: "/assets",
			Patterns:  []string{"*.{jpg,jpeg,png,webp,gif,avif,svg}"},
		},
		Matching: MatchingConfig{
			Threshold:      domain.DefaultThreshold,
			StopWords:      domain.DefaultStopWords,
			MinTokenLength: domain.DefaultMinTokenLength,
			Placeholders:   []string{},
		},
		Rules: RulesConfig{Path: DefaultRulesPath},
		Apply: ApplyConfig{
			Concurrency:    1,
			MaxRetries:     3,
			InitialBackoff: 200 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// LoadConfig reads configuration from defaults, an optional YAML file and
// CATALOGSYNC_* environment variables, in increasing precedence. An empty
// path searches ./catalogsync.yaml and ~/.config/catalogsync/catalogsync.yaml.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(expandHome(path))
	} else {
		v.SetConfigName("catalogsync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "catalogsync"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Catalog.DSN = expandHome(cfg.Catalog.DSN)
	cfg.Assets.Root = expandHome(cfg.Assets.Root)
	cfg.Rules.Path = expandHome(cfg.Rules.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("catalog.driver", d.Catalog.Driver)
	v.SetDefault("catalog.dsn", d.Catalog.DSN)
	v.SetDefault("catalog.table", d.Catalog.Table)
	v.SetDefault("catalog.max_conns", d.Catalog.MaxConns)

	v.SetDefault("assets.root", d.Assets.Root)
	v.SetDefault("assets.url_prefix", d.Assets.URLPrefix)
	v.SetDefault("assets.patterns", d.Assets.Patterns)

	v.SetDefault("matching.threshold", d.Matching.Threshold)
	v.SetDefault("matching.stop_words", d.Matching.StopWords)
	v.SetDefault("matching.min_token_length", d.Matching.MinTokenLength)
	v.SetDefault("matching.placeholders", d.Matching.Placeholders)

	v.SetDefault("rules.path", d.Rules.Path)
	v.SetDefault("rules.editor", d.Rules.Editor)

	v.SetDefault("apply.concurrency", d.Apply.Concurrency)
	v.SetDefault("apply.max_retries", d.Apply.MaxRetries)
	v.SetDefault("apply.initial_backoff", d.Apply.InitialBackoff)
	v.SetDefault("apply.max_backoff", d.Apply.MaxBackoff)

	v.SetDefault("server.addr", d.Server.Addr)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	switch c.Catalog.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("catalog.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Catalog.Driver)
	}
	if strings.TrimSpace(c.Catalog.DSN) == "" {
		return errors.New("catalog.dsn is required")
	}
	if strings.TrimSpace(c.Assets.Root) == "" {
		return errors.New("assets.root is required")
	}
	// zero is the matcher's "unset" value
	if c.Matching.Threshold <= 0 || c.Matching.Threshold > 1 {
		return fmt.Errorf("matching.threshold must be within (0, 1], got %g", c.Matching.Threshold)
	}
	if c.Apply.Concurrency < 1 {
		return fmt.Errorf("apply.concurrency must be at least 1, got %d", c.Apply.Concurrency)
	}
	if c.Apply.MaxRetries < 0 {
		return fmt.Errorf("apply.max_retries must not be negative, got %d", c.Apply.MaxRetries)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be \"json\" or \"console\", got %q", c.Log.Format)
	}
	return nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
