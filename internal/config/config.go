// Package config loads saas-classifier settings from config.yaml and
// SAAS_* environment variables, and sets up the global logger.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/saas-classifier/internal/fetcher"
	"github.com/sells-group/saas-classifier/internal/store"
)

// AppName names the XDG cache directory.
const AppName = "saas-classifier"

// Config holds the full application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// ClassifyConfig tunes the classifier.
type ClassifyConfig struct {
	TopN int `yaml:"top_n" mapstructure:"top_n"`
	// TaxonomyFile replaces the built-in taxonomy when set.
	TaxonomyFile string `yaml:"taxonomy_file" mapstructure:"taxonomy_file"`
	// Trace logs per-category score components at debug level.
	Trace bool `yaml:"trace" mapstructure:"trace"`
}

// FetchConfig configures outbound page fetches.
type FetchConfig struct {
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries   int     `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RatePerHost  float64 `yaml:"rate_per_host" mapstructure:"rate_per_host"`
}

// StoreConfig configures the extracted-text cache.
type StoreConfig struct {
	Enabled       bool              `yaml:"enabled" mapstructure:"enabled"`
	Driver        string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string            `yaml:"database_url" mapstructure:"database_url"`
	CacheTTLHours int               `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	Pool          *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ExtractConfig configures text extraction.
type ExtractConfig struct {
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// BatchConfig configures batch classification.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// DefaultCachePath returns the SQLite cache location under the XDG cache
// directory.
func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, AppName, "cache.db")
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SAAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_secs", 30)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("classify.top_n", 3)
	v.SetDefault("classify.taxonomy_file", "")
	v.SetDefault("classify.trace", false)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", fetcher.DefaultUserAgent)
	v.SetDefault("fetch.max_body_bytes", fetcher.DefaultMaxBodyBytes)
	v.SetDefault("fetch.rate_per_host", 5.0)
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.cache_ttl_hours", 24)
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	v.SetDefault("batch.concurrency", 4)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.Store.DatabaseURL == "" && cfg.Store.Driver == store.DriverSQLite {
		cfg.Store.DatabaseURL = DefaultCachePath()
	}

	return &cfg, nil
}

// StoreOptions converts the store section for store.Open.
func (c *Config) StoreOptions() store.Config {
	return store.Config{
		Driver:      c.Store.Driver,
		DatabaseURL: c.Store.DatabaseURL,
		Pool:        c.Store.Pool,
	}
}

// CacheTTL is the lifetime of cached page text.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Store.CacheTTLHours) * time.Hour
}

// HTTPOptions converts the fetch section for fetcher.NewHTTPFetcher.
func (c *Config) HTTPOptions() fetcher.HTTPOptions {
	return fetcher.HTTPOptions{
		UserAgent:    c.Fetch.UserAgent,
		Timeout:      time.Duration(c.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:   c.Fetch.MaxRetries,
		MaxBodyBytes: c.Fetch.MaxBodyBytes,
		RatePerHost:  c.Fetch.RatePerHost,
	}
}

// Validate checks the settings a command needs. mode is one of classify,
// batch, extract, validate, or serve.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "classify", "batch", "extract", "validate", "serve":
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if c.Classify.TopN < 1 {
		errs = append(errs, fmt.Sprintf("classify.top_n must be >= 1 (got %d)", c.Classify.TopN))
	}
	if c.Fetch.TimeoutSecs < 1 {
		errs = append(errs, fmt.Sprintf("fetch.timeout_secs must be >= 1 (got %d)", c.Fetch.TimeoutSecs))
	}
	if c.Fetch.MaxRetries < 0 || c.Fetch.MaxRetries > 10 {
		errs = append(errs, fmt.Sprintf("fetch.max_retries must be between 0 and 10 (got %d)", c.Fetch.MaxRetries))
	}
	if c.Fetch.RatePerHost <= 0 {
		errs = append(errs, fmt.Sprintf("fetch.rate_per_host must be > 0 (got %g)", c.Fetch.RatePerHost))
	}
	if c.Store.Enabled {
		switch c.Store.Driver {
		case store.DriverSQLite, store.DriverPostgres:
		default:
			errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres (got %q)", c.Store.Driver))
		}
		if c.Store.Driver == store.DriverPostgres && c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for postgres")
		}
		if c.Store.CacheTTLHours < 1 {
			errs = append(errs, fmt.Sprintf("store.cache_ttl_hours must be >= 1 (got %d)", c.Store.CacheTTLHours))
		}
	}

	switch mode {
	case "batch":
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
			errs = append(errs, fmt.Sprintf("batch.concurrency must be between 1 and 64 (got %d)", c.Batch.Concurrency))
		}
	case "serve":
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
		}
		if c.Server.RequestTimeoutSecs < 1 {
			errs = append(errs, fmt.Sprintf("server.request_timeout_secs must be >= 1 (got %d)", c.Server.RequestTimeoutSecs))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
