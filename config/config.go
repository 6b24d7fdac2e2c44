// Package config loads the service configuration from an optional config
// file, a .env file and NFTQ_-prefixed environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable, e.g. NFTQ_INDEXER_ENDPOINT.
const EnvPrefix = "NFTQ"

// IndexerConfig locates the indexer GraphQL endpoint. Timeout bounds each
// request.
type IndexerConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// QueryConfig bounds the catalog. MaxPageSize is the window of listings
// requested without a limit.
type QueryConfig struct {
	MaxPageSize int `mapstructure:"max_page_size"`
}

// DatabaseConfig is the sqlite user store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig enables the response cache. Responses are kept for TTL.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ServerConfig is the HTTP listen address.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// EnrichConfig sizes the enrichment worker pool and the metadata fetch. An
// empty IPFSGateway uses the public gateway.
type EnrichConfig struct {
	Workers         int           `mapstructure:"workers"`
	MetadataTimeout time.Duration `mapstructure:"metadata_timeout"`
	IPFSGateway     string        `mapstructure:"ipfs_gateway"`
}

// LogConfig selects the log level and the encoder, "json" or "console".
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// Config is the service configuration.
type Config struct {
	Indexer  IndexerConfig  `mapstructure:"indexer"`
	Query    QueryConfig    `mapstructure:"query"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
	Enrich   EnrichConfig   `mapstructure:"enrich"`
	Log      LogConfig      `mapstructure:"log"`
}

var defaults = map[string]any{
	"indexer.endpoint":        "http://localhost:3000/graphql",
	"indexer.timeout":         30 * time.Second,
	"query.max_page_size":     100,
	"database.path":           "users.db",
	"redis.enabled":           false,
	"redis.addr":              "localhost:6379",
	"redis.password":          "",
	"redis.db":                0,
	"redis.ttl":               time.Minute,
	"server.addr":             ":8080",
	"enrich.workers":          8,
	"enrich.metadata_timeout": 10 * time.Second,
	"enrich.ipfs_gateway":     "https://ipfs.io/ipfs/",
	"log.level":               "info",
	"log.format":              "json",
}

// Load reads the configuration. configFile names an explicit file; when empty
// a config.{yaml,toml,json} in the working directory or ./config is used if
// one exists.
func Load(configFile string) (*Config, error) {
	// A missing .env is not an error.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Indexer.Endpoint) == "" {
		errs = append(errs, errors.New("indexer.endpoint is required"))
	}
	if c.Query.MaxPageSize <= 0 {
		errs = append(errs, fmt.Errorf("query.max_page_size must be positive, got %d", c.Query.MaxPageSize))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// NewLogger builds a zap logger. format "console" selects the development
// encoder; anything else logs JSON.
func NewLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
