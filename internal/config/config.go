// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Source    SourceConfig    `mapstructure:"source"`
	Crawl     CrawlConfig     `mapstructure:"crawl"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Store     StoreConfig     `mapstructure:"store"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// SourceConfig describes the remote site being ingested.
type SourceConfig struct {
	BaseURL        string   `mapstructure:"base_url"`
	Name           string   `mapstructure:"name"`
	Keywords       []string `mapstructure:"keywords"`
	UserAgent      string   `mapstructure:"user_agent"`
	ProbeUserAgent string   `mapstructure:"probe_user_agent"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
}

// CrawlConfig governs the incremental id-frontier crawl.
type CrawlConfig struct {
	DefaultCursor int   `mapstructure:"default_cursor"`
	WindowSize    int   `mapstructure:"window_size"`
	BatchSize     int   `mapstructure:"batch_size"`
	DelayMs       int   `mapstructure:"delay_ms"`
	ProbeOffsets  []int `mapstructure:"probe_offsets"`
	ProbeDelayMs  int   `mapstructure:"probe_delay_ms"`
}

// ArchiveConfig bounds the rolling archive.
type ArchiveConfig struct {
	MaxItems   int  `mapstructure:"max_items"`
	DedupeByID bool `mapstructure:"dedupe_by_id"`
}

// StoreConfig selects and configures the key-value backend.
type StoreConfig struct {
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	PostgresTable string `mapstructure:"postgres_table"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// SchedulerConfig controls the interval trigger.
type SchedulerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BTCNEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("source.base_url", "https://www.jinse.cn/lives/")
	v.SetDefault("source.name", "金色财经")
	v.SetDefault("source.keywords", []string{
		"BTC", "btc", "Bitcoin", "bitcoin", "BITCOIN",
		"中国", "中本聪", "特朗普", "美联储",
	})
	v.SetDefault("source.user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("source.probe_user_agent", "Mozilla/5.0 (compatible; BTC-News-Bot/1.0)")
	v.SetDefault("source.timeout_seconds", 15)
	v.SetDefault("crawl.default_cursor", 488209)
	v.SetDefault("crawl.window_size", 100)
	v.SetDefault("crawl.batch_size", 30)
	v.SetDefault("crawl.delay_ms", 400)
	v.SetDefault("crawl.probe_offsets", []int{0, 50, 100, 200})
	v.SetDefault("crawl.probe_delay_ms", 200)
	v.SetDefault("archive.max_items", 100)
	v.SetDefault("archive.dedupe_by_id", false)
	v.SetDefault("store.backend", "redis")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.postgres_table", "kv_entries")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval_minutes", 30)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if len(c.Source.Keywords) == 0 {
		return fmt.Errorf("source.keywords must not be empty")
	}
	if c.Crawl.WindowSize <= 0 {
		return fmt.Errorf("crawl.window_size must be > 0")
	}
	if c.Crawl.BatchSize <= 0 {
		return fmt.Errorf("crawl.batch_size must be > 0")
	}
	if c.Crawl.DelayMs < 0 {
		return fmt.Errorf("crawl.delay_ms must be >= 0")
	}
	if c.Archive.MaxItems <= 0 {
		return fmt.Errorf("archive.max_items must be > 0")
	}
	switch c.Store.Backend {
	case "redis", "postgres", "memory":
	default:
		return fmt.Errorf("store.backend must be one of redis, postgres, memory")
	}
	if c.Store.Backend == "postgres" && c.Store.PostgresDSN == "" {
		return fmt.Errorf("store.postgres_dsn is required when store.backend is postgres")
	}
	if c.Scheduler.Enabled && c.Scheduler.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler.interval_minutes must be > 0 when scheduler is enabled")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// FetchTimeout converts the source timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// CrawlDelay returns the fixed inter-request pacing delay.
func (c Config) CrawlDelay() time.Duration {
	return time.Duration(c.Crawl.DelayMs) * time.Millisecond
}

// ProbeDelay returns the pacing delay between frontier probes.
func (c Config) ProbeDelay() time.Duration {
	return time.Duration(c.Crawl.ProbeDelayMs) * time.Millisecond
}

// SchedulerInterval returns the interval between scheduled runs.
func (c Config) SchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalMinutes) * time.Minute
}
