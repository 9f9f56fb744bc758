// Package config loads the indexer's TOML configuration the same way the
// original network config package loads YAML: viper.SetConfigType +
// ReadInConfig, with AutomaticEnv so individual keys can be overridden
// without a file at all.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	nerrors "namadexer/internal/errors"
)

// Config is the unified indexer/server configuration. Field names mirror
// the TOML keys exactly (via mapstructure tags).
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	ChainName string `mapstructure:"chain_name"`

	Database struct {
		Host              string `mapstructure:"host"`
		Port              int    `mapstructure:"port"`
		User              string `mapstructure:"user"`
		Password          string `mapstructure:"password"`
		DBName            string `mapstructure:"dbname"`
		ConnectionTimeout int    `mapstructure:"connection_timeout"`
		CreateIndex       bool   `mapstructure:"create_index"`
	} `mapstructure:"database"`

	Server struct {
		ServeAt          string   `mapstructure:"serve_at"`
		Port             int      `mapstructure:"port"`
		CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
	} `mapstructure:"server"`

	Indexer struct {
		TendermintAddr string `mapstructure:"tendermint_addr"`
	} `mapstructure:"indexer"`

	Jaeger struct {
		Enable bool   `mapstructure:"enable"`
		Host   string `mapstructure:"host"`
		Port   int    `mapstructure:"port"`
	} `mapstructure:"jaeger"`

	Prometheus struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"prometheus"`
}

// defaults applied before any file/env/flag layer is read.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "pretty")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.connection_timeout", 60)
	v.SetDefault("database.create_index", true)
	v.SetDefault("server.serve_at", "0.0.0.0")
	v.SetDefault("server.port", 30303)
	v.SetDefault("server.cors_allow_origins", []string{"*"})
}

// Load reads configuration from path (a TOML file) if non-empty, merges
// environment variable overrides, binds flags, and validates the result,
// panicking if Validate rejects it. An empty path means "flags/env only" — the caller is expected to have
// already checked $INDEXER_CONFIG_PATH.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, nerrors.Wrap(nerrors.KindConfig, "config.Load", err)
		}
	}

	v.SetEnvPrefix("indexer")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, nerrors.Wrap(nerrors.KindConfig, "config.Load", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nerrors.Wrap(nerrors.KindConfig, "config.Load", err)
	}

	if err := Validate(&cfg); err != nil {
		panic(err)
	}
	return &cfg, nil
}

// Validate enforces invariants the original implementation treats as
// startup panics. Load panics on Validate's error; the function itself
// just returns the error so tests can inspect it.
func Validate(cfg *Config) error {
	if strings.Contains(cfg.ChainName, ".") {
		return nerrors.New(nerrors.KindConfig, "config.Validate",
			fmt.Sprintf("chain_name %q must not contain '.'", cfg.ChainName))
	}
	return nil
}

// SchemaName derives the Postgres schema name from ChainName, replacing
// every '-' with '_'.
func (c *Config) SchemaName() string {
	return strings.ReplaceAll(c.ChainName, "-", "_")
}

// DSN builds a libpq-style connection string from the Database fields.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.DBName)
}
