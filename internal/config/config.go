// Package config loads sift settings from an optional config file and
// SIFT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting of the CLI and the API server.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Search  SearchConfig  `mapstructure:"search"`
	Extract ExtractConfig `mapstructure:"extract"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Server  ServerConfig  `mapstructure:"server"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (c LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Format)
	}
	return nil
}

// LLMConfig points at the text-generation backend.
type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	NumCtx      int           `mapstructure:"num_ctx"`
	PingTimeout time.Duration `mapstructure:"ping_timeout"`
}

func (c LLMConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("llm.base_url is required")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("llm.model is required")
	}
	if c.NumCtx <= 0 {
		return errors.New("llm.num_ctx must be greater than zero")
	}
	return nil
}

// SearchConfig configures the search providers and outbound fetching.
type SearchConfig struct {
	DuckDuckGoEndpoint string        `mapstructure:"ddg_endpoint"`
	BingEndpoint       string        `mapstructure:"bing_endpoint"`
	Attempts           int           `mapstructure:"attempts"`
	Timeout            time.Duration `mapstructure:"timeout"`
	MinDelay           time.Duration `mapstructure:"min_delay"`
	MaxDelay           time.Duration `mapstructure:"max_delay"`
	ProbeDelay         time.Duration `mapstructure:"probe_delay"`
	Fingerprint        string        `mapstructure:"fingerprint"`
	Proxies            []string      `mapstructure:"proxies"`
	ProxyFile          string        `mapstructure:"proxy_file"`
}

func (c SearchConfig) Validate() error {
	if c.Attempts <= 0 {
		return errors.New("search.attempts must be greater than zero")
	}
	if c.Timeout <= 0 {
		return errors.New("search.timeout must be greater than zero")
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("search delays must satisfy 0 <= min_delay <= max_delay (got %s, %s)", c.MinDelay, c.MaxDelay)
	}
	if c.ProbeDelay < 0 {
		return errors.New("search.probe_delay cannot be negative")
	}
	return nil
}

// ExtractConfig configures page extraction.
type ExtractConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	Limit         int           `mapstructure:"limit"`
	RespectRobots bool          `mapstructure:"respect_robots"`
	UserAgent     string        `mapstructure:"user_agent"`
}

func (c ExtractConfig) Validate() error {
	if c.Timeout <= 0 {
		return errors.New("extract.timeout must be greater than zero")
	}
	if c.Limit <= 0 {
		return errors.New("extract.limit must be greater than zero")
	}
	return nil
}

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// CacheConfig selects where research results are cached.
type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	Dir     string        `mapstructure:"dir"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig is used when cache.backend is redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

func (c CacheConfig) Validate() error {
	switch c.Backend {
	case CacheFile:
		if strings.TrimSpace(c.Dir) == "" {
			return errors.New("cache.dir is required for the file backend")
		}
	case CacheRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return errors.New("cache.redis.addr is required for the redis backend")
		}
	case CacheNone:
		return nil
	default:
		return fmt.Errorf("cache.backend must be file, redis or none (got %q)", c.Backend)
	}
	if c.TTL <= 0 {
		return errors.New("cache.ttl must be greater than zero")
	}
	return nil
}

// Archive backends.
const (
	ArchiveNone     = "none"
	ArchiveJSON     = "json"
	ArchiveSQLite   = "sqlite"
	ArchivePostgres = "postgres"
)

// ArchiveConfig selects where run records are kept.
type ArchiveConfig struct {
	Backend string `mapstructure:"backend"`
	// Path is the file for the json and sqlite backends.
	Path string `mapstructure:"path"`
	// DSN is the connection string for the postgres backend.
	DSN string `mapstructure:"dsn"`
}

func (c ArchiveConfig) Validate() error {
	switch c.Backend {
	case ArchiveNone:
	case ArchiveJSON, ArchiveSQLite:
		if strings.TrimSpace(c.Path) == "" {
			return fmt.Errorf("archive.path is required for the %s backend", c.Backend)
		}
	case ArchivePostgres:
		if strings.TrimSpace(c.DSN) == "" {
			return errors.New("archive.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("archive.backend must be none, json, sqlite or postgres (got %q)", c.Backend)
	}
	return nil
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

func (c MetricsConfig) Validate() error {
	if c.Enabled && c.Port <= 0 {
		return errors.New("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// RunTimeout bounds one analyze request. Zero means no limit.
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

func (c ServerConfig) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("server.addr is required")
	}
	if c.RunTimeout < 0 {
		return errors.New("server.run_timeout cannot be negative")
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	for _, v := range []interface{ Validate() error }{
		c.Log, c.LLM, c.Search, c.Extract, c.Cache, c.Archive, c.Metrics, c.Server,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.model", "qwen2.5-coder:7b")
	v.SetDefault("llm.num_ctx", 2048)
	v.SetDefault("llm.ping_timeout", 5*time.Second)

	v.SetDefault("search.ddg_endpoint", "https://html.duckduckgo.com/html/")
	v.SetDefault("search.bing_endpoint", "https://www.bing.com/search")
	v.SetDefault("search.attempts", 2)
	v.SetDefault("search.timeout", 15*time.Second)
	v.SetDefault("search.min_delay", 1500*time.Millisecond)
	v.SetDefault("search.max_delay", 3500*time.Millisecond)
	v.SetDefault("search.probe_delay", 2*time.Second)
	v.SetDefault("search.fingerprint", "chrome")
	v.SetDefault("search.proxies", []string{})
	v.SetDefault("search.proxy_file", "")

	v.SetDefault("extract.timeout", 10*time.Second)
	v.SetDefault("extract.limit", 5)
	v.SetDefault("extract.respect_robots", false)
	v.SetDefault("extract.user_agent", "*")

	v.SetDefault("cache.backend", CacheFile)
	v.SetDefault("cache.dir", ".cache")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "sift:research:")

	v.SetDefault("archive.backend", ArchiveNone)
	v.SetDefault("archive.path", "sift-runs.db")
	v.SetDefault("archive.dsn", "")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.run_timeout", 10*time.Minute)
}

// Load reads path when it is non-empty, then applies SIFT_* environment
// overrides (SIFT_LLM_MODEL sets llm.model). The file format follows the
// extension.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("SIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
