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
	Logging   LoggingConfig   `mapstructure:"logging"`
	DB        DBConfig        `mapstructure:"db"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Events    EventsConfig    `mapstructure:"events"`
	AI        AIConfig        `mapstructure:"ai"`
	SEOData   SEODataConfig   `mapstructure:"seodata"`
	CallRail  CallRailConfig  `mapstructure:"callrail"`
	WordPress WordPressConfig `mapstructure:"wordpress"`
	Webhooks  WebhooksConfig  `mapstructure:"webhooks"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// AuthConfig defines API authentication settings.
type AuthConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	APIKey         string `mapstructure:"api_key"`
	JWTSecret      string `mapstructure:"jwt_secret"`
	TokenTTLHours  int    `mapstructure:"token_ttl_hours"`
	AdminEmail     string `mapstructure:"admin_email"`
	AdminPassword  string `mapstructure:"admin_password"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	Provider string `mapstructure:"provider"` // postgres | memory
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// StorageConfig selects the blob store for page snapshots.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"` // gcs | local | memory
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
	LocalDir  string `mapstructure:"local_dir"`
}

// EventsConfig selects the optional event-bus bridge.
type EventsConfig struct {
	Provider  string `mapstructure:"provider"` // pubsub | memory | none
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// AIConfig governs content generation.
type AIConfig struct {
	Provider       string `mapstructure:"provider"` // openai | gemini | template
	OpenAIKey      string `mapstructure:"openai_key"`
	OpenAIModel    string `mapstructure:"openai_model"`
	FallbackModel  string `mapstructure:"fallback_model"`
	GeminiKey      string `mapstructure:"gemini_key"`
	GeminiModel    string `mapstructure:"gemini_model"`
	MaxTokens      int    `mapstructure:"max_tokens"`
	MinIntervalSec int    `mapstructure:"min_interval_seconds"`
}

// SEODataConfig points at the SEMRush-compatible data API.
type SEODataConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Database       string `mapstructure:"database"` // regional database, e.g. "us"
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CallRailConfig points at the CallRail call-tracking API.
type CallRailConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	AccountID      string `mapstructure:"account_id"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// WordPressConfig tunes the WordPress REST client.
type WordPressConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxRetries     int `mapstructure:"max_retries"`
	BackoffMs      int `mapstructure:"backoff_ms"`
}

// WebhooksConfig tunes outbound webhook delivery.
type WebhooksConfig struct {
	Workers        int `mapstructure:"workers"`
	QueueDepth     int `mapstructure:"queue_depth"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxRetries     int `mapstructure:"max_retries"`
	BackoffMs      int `mapstructure:"backoff_ms"`
}

// MonitorConfig governs competitor crawling.
type MonitorConfig struct {
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxPagesPerCrawl int    `mapstructure:"max_pages_per_crawl"`
	MaxChildSitemaps int    `mapstructure:"max_child_sitemaps"`
	RenderEnabled    bool   `mapstructure:"render_enabled"`
	RenderTimeoutSec int    `mapstructure:"render_timeout_seconds"`
}

// SchedulerConfig holds cron expressions for the background jobs.
type SchedulerConfig struct {
	Enabled               bool   `mapstructure:"enabled"`
	CompetitorCrawl       string `mapstructure:"competitor_crawl"`
	RankCheck             string `mapstructure:"rank_check"`
	AutoPublish           string `mapstructure:"auto_publish"`
	AlertDigest           string `mapstructure:"alert_digest"`
	DailySummary          string `mapstructure:"daily_summary"`
	ContentDueNotice      string `mapstructure:"content_due_notice"`
}

// OAuthPlatformConfig holds one platform's app credentials.
type OAuthPlatformConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// OAuthConfig holds platform OAuth app credentials.
type OAuthConfig struct {
	RedirectBase string              `mapstructure:"redirect_base"`
	Facebook     OAuthPlatformConfig `mapstructure:"facebook"`
	LinkedIn     OAuthPlatformConfig `mapstructure:"linkedin"`
	Google       OAuthPlatformConfig `mapstructure:"google"`
}

// NotifyConfig configures outbound email.
type NotifyConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	SMTPUser string `mapstructure:"smtp_user"`
	SMTPPass string `mapstructure:"smtp_pass"`
	From     string `mapstructure:"from"`
	AdminTo  string `mapstructure:"admin_to"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SEOENGINE")
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
	v.SetDefault("server.timeout_seconds", 60)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token_ttl_hours", 24)

	v.SetDefault("logging.development", true)

	v.SetDefault("db.provider", "memory")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)

	v.SetDefault("storage.provider", "memory")
	v.SetDefault("storage.prefix", "snapshots")
	v.SetDefault("storage.local_dir", "data/snapshots")

	v.SetDefault("events.provider", "none")

	v.SetDefault("ai.provider", "template")
	v.SetDefault("ai.openai_model", "gpt-4o")
	v.SetDefault("ai.fallback_model", "gpt-4o-mini")
	v.SetDefault("ai.gemini_model", "gemini-2.0-flash")
	v.SetDefault("ai.max_tokens", 12000)
	v.SetDefault("ai.min_interval_seconds", 2)

	v.SetDefault("seodata.base_url", "https://api.semrush.com")
	v.SetDefault("seodata.database", "us")
	v.SetDefault("seodata.timeout_seconds", 15)

	v.SetDefault("callrail.base_url", "https://api.callrail.com/v3")
	v.SetDefault("callrail.timeout_seconds", 15)

	v.SetDefault("wordpress.timeout_seconds", 30)
	v.SetDefault("wordpress.max_retries", 3)
	v.SetDefault("wordpress.backoff_ms", 1000)

	v.SetDefault("webhooks.workers", 5)
	v.SetDefault("webhooks.queue_depth", 128)
	v.SetDefault("webhooks.timeout_seconds", 10)
	v.SetDefault("webhooks.max_retries", 3)
	v.SetDefault("webhooks.backoff_ms", 500)

	v.SetDefault("monitor.user_agent", "Mozilla/5.0 (compatible; SEOEngineBot/1.0; +https://ackwest.com/bot)")
	v.SetDefault("monitor.timeout_seconds", 10)
	v.SetDefault("monitor.max_pages_per_crawl", 10)
	v.SetDefault("monitor.max_child_sitemaps", 5)
	v.SetDefault("monitor.render_enabled", false)
	v.SetDefault("monitor.render_timeout_seconds", 15)

	// Same cadence the platform has always run: crawls overnight,
	// rank checks before the workday, publishing sweep every 5 minutes.
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.competitor_crawl", "0 3 * * *")
	v.SetDefault("scheduler.rank_check", "0 5 * * *")
	v.SetDefault("scheduler.auto_publish", "*/5 * * * *")
	v.SetDefault("scheduler.alert_digest", "0 * * * *")
	v.SetDefault("scheduler.daily_summary", "0 8 * * *")
	v.SetDefault("scheduler.content_due_notice", "0 7 * * *")

	v.SetDefault("notify.smtp_port", 587)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.api_key or auth.jwt_secret must be set when auth is enabled")
	}
	switch c.DB.Provider {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.provider is postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown db.provider %q", c.DB.Provider)
	}
	switch c.Storage.Provider {
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
		}
	case "local", "memory":
	default:
		return fmt.Errorf("unknown storage.provider %q", c.Storage.Provider)
	}
	switch c.Events.Provider {
	case "pubsub":
		if c.Events.ProjectID == "" || c.Events.TopicName == "" {
			return fmt.Errorf("events.project_id and events.topic_name must be set when events.provider is pubsub")
		}
	case "memory", "none":
	default:
		return fmt.Errorf("unknown events.provider %q", c.Events.Provider)
	}
	switch c.AI.Provider {
	case "openai":
		if c.AI.OpenAIKey == "" {
			return fmt.Errorf("ai.openai_key must be set when ai.provider is openai")
		}
	case "gemini":
		if c.AI.GeminiKey == "" {
			return fmt.Errorf("ai.gemini_key must be set when ai.provider is gemini")
		}
	case "template":
	default:
		return fmt.Errorf("unknown ai.provider %q", c.AI.Provider)
	}
	if c.Webhooks.Workers <= 0 {
		return fmt.Errorf("webhooks.workers must be > 0")
	}
	if c.Monitor.MaxPagesPerCrawl <= 0 {
		return fmt.Errorf("monitor.max_pages_per_crawl must be > 0")
	}
	return nil
}

// ServerTimeout converts the configured request timeout into a duration.
func (c Config) ServerTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// WebhookTimeout converts the webhook delivery timeout into a duration.
func (c Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhooks.TimeoutSeconds) * time.Second
}
