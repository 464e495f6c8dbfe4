// Package config holds the settings of the search engine and loads them with
// viper from a config file and ASCETIC_SEARCH_ prefixed environment variables.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/customquery"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/diagnostics"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/tokenrow"
)

const EnvPrefix = "ASCETIC_SEARCH"

type DatabaseConfig struct {
	URI             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

type LogConfig struct {
	// Format is either 'text' or 'json'.
	Format string
	Level  string
}

type SearchConfig struct {
	DefaultMaxItemCount int
	DefaultIncludeCount int
	// CommandTimeout is reported in the query trailer; zero omits it.
	CommandTimeout time.Duration
	// CustomQueryWaitTime bounds how often the custom query directory is re-read.
	CustomQueryWaitTime time.Duration
	DiagnosticsTimeout  time.Duration
	CodeMaxLength       int
	TruncatedCodeLength int
	// SchemaVersion enables schema dependent rewrites such as partition elimination.
	SchemaVersion int
}

type Config struct {
	Database DatabaseConfig
	Log      LogConfig
	Search   SearchConfig
}

func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			MaxOpenConns: 30,
			MaxIdleConns: 10,
			PingTimeout:  time.Minute,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Search: SearchConfig{
			DefaultMaxItemCount: searchopts.DefaultMaxItemCount,
			DefaultIncludeCount: searchopts.DefaultIncludeCount,
			CustomQueryWaitTime: customquery.DefaultWaitTime,
			DiagnosticsTimeout:  diagnostics.DefaultTimeout,
			CodeMaxLength:       tokenrow.DefaultCodeMaxLength,
			TruncatedCodeLength: tokenrow.DefaultTruncatedCodeLength,
		},
	}
}

func (cfg *Config) Verify() error {
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return errors.New("config 'log.format' must be one of ['text', 'json']")
	}
	switch cfg.Log.Level {
	case "none", "debug", "info", "warn", "error":
	default:
		return errors.New("config 'log.level' must be one of ['none', 'debug', 'info', 'warn', 'error']")
	}
	if cfg.Search.DefaultMaxItemCount <= 0 {
		return errors.Errorf("config 'search.defaultMaxItemCount' must be positive, got %d", cfg.Search.DefaultMaxItemCount)
	}
	if cfg.Search.DefaultIncludeCount <= 0 {
		return errors.Errorf("config 'search.defaultIncludeCount' must be positive, got %d", cfg.Search.DefaultIncludeCount)
	}
	if cfg.Search.TruncatedCodeLength <= 0 || cfg.Search.TruncatedCodeLength > cfg.Search.CodeMaxLength {
		return errors.Errorf(
			"config 'search.truncatedCodeLength' (%d) must be positive and not exceed 'search.codeMaxLength' (%d)",
			cfg.Search.TruncatedCodeLength,
			cfg.Search.CodeMaxLength,
		)
	}
	if cfg.Search.CommandTimeout < 0 || cfg.Search.CustomQueryWaitTime < 0 || cfg.Search.DiagnosticsTimeout < 0 {
		return errors.New("config 'search' durations cannot be negative")
	}
	return nil
}

// NewViper returns a viper instance seeded with the defaults, reading
// config.yaml from the given paths and the environment.
func NewViper(paths ...string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("database.uri", d.Database.URI)
	v.SetDefault("database.maxOpenConns", d.Database.MaxOpenConns)
	v.SetDefault("database.maxIdleConns", d.Database.MaxIdleConns)
	v.SetDefault("database.connMaxIdleTime", d.Database.ConnMaxIdleTime)
	v.SetDefault("database.connMaxLifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("database.pingTimeout", d.Database.PingTimeout)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("search.defaultMaxItemCount", d.Search.DefaultMaxItemCount)
	v.SetDefault("search.defaultIncludeCount", d.Search.DefaultIncludeCount)
	v.SetDefault("search.commandTimeout", d.Search.CommandTimeout)
	v.SetDefault("search.customQueryWaitTime", d.Search.CustomQueryWaitTime)
	v.SetDefault("search.diagnosticsTimeout", d.Search.DiagnosticsTimeout)
	v.SetDefault("search.codeMaxLength", d.Search.CodeMaxLength)
	v.SetDefault("search.truncatedCodeLength", d.Search.TruncatedCodeLength)
	v.SetDefault("search.schemaVersion", d.Search.SchemaVersion)
	return v
}

// Load reads the optional config file, unmarshals and verifies the result.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}
