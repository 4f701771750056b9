package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Cache    CacheConfig    `yaml:"cache"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Sources  SourcesConfig  `yaml:"sources"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Server   ServerConfig   `yaml:"server"`
	Filter   FilterConfig   `yaml:"filter"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LockPath is the file the daemon locks so one scheduler runs per database.
func (d DatabaseConfig) LockPath() string {
	return d.Path + ".lock"
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// CacheConfig configures the property catalogue cache.
// An empty RedisAddr keeps the cache in process memory.
type CacheConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTL           string `yaml:"ttl"`
}

// ParseTTL returns the cache TTL as time.Duration.
func (c CacheConfig) ParseTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return time.Minute
	}
	return d
}

// ScheduleConfig configures listing import and applicant review intervals.
type ScheduleConfig struct {
	ImportInterval string `yaml:"import_interval"`
	ReviewInterval string `yaml:"review_interval"`
}

// ParseImportInterval returns the import interval as time.Duration.
func (s ScheduleConfig) ParseImportInterval() time.Duration {
	d, err := time.ParseDuration(s.ImportInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// ParseReviewInterval returns the review interval as time.Duration.
func (s ScheduleConfig) ParseReviewInterval() time.Duration {
	d, err := time.ParseDuration(s.ReviewInterval)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// SourcesConfig holds configuration for all listing sources.
type SourcesConfig struct {
	Seed        SeedConfig `yaml:"seed"`
	RSS         RSSConfig  `yaml:"rss"`
	HTML        HTMLConfig `yaml:"html"`
	RatePerHost float64    `yaml:"rate_per_host"`
	Burst       int        `yaml:"burst"`
}

// SeedConfig for the built-in or file-based listing dataset.
type SeedConfig struct {
	Enabled    bool   `yaml:"enabled"`
	File       string `yaml:"file"`
	LandlordID string `yaml:"landlord_id"`
}

// RSSConfig for listing feeds.
type RSSConfig struct {
	Enabled bool       `yaml:"enabled"`
	Feeds   []FeedItem `yaml:"feeds"`
}

// FeedItem is a single listing feed.
type FeedItem struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	Location   string `yaml:"location"`
	LandlordID string `yaml:"landlord_id"`
}

// HTMLConfig for scraped listing index pages.
type HTMLConfig struct {
	Enabled bool       `yaml:"enabled"`
	Sites   []SiteItem `yaml:"sites"`
}

// SiteItem describes one listing page and the CSS selectors to read it.
type SiteItem struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Location    string `yaml:"location"`
	LandlordID  string `yaml:"landlord_id"`
	Card        string `yaml:"card"`
	Title       string `yaml:"title"`
	Price       string `yaml:"price"`
	Place       string `yaml:"place"`
	Description string `yaml:"description"`
	Amenity     string `yaml:"amenity"`
	Link        string `yaml:"link"`
}

// ScoringConfig configures how scores are used, not how they are computed.
type ScoringConfig struct {
	MinMatchScore     int `yaml:"min_match_score"`
	AlertMinRiskScore int `yaml:"alert_min_risk_score"`
	Workers           int `yaml:"workers"`
	DefaultLimit      int `yaml:"default_limit"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
// When Secret is empty and KeyringAccount is set, the secret is read from the OS keyring.
type WebhookConfig struct {
	Enabled        bool   `yaml:"enabled"`
	URL            string `yaml:"url"`
	Secret         string `yaml:"secret"`
	KeyringAccount string `yaml:"keyring_account"`
}

// ServerConfig configures the HTTP server.
// PublicURL, when set, is used to link alerts back to the API.
type ServerConfig struct {
	Port      int     `yaml:"port"`
	PublicURL string  `yaml:"public_url"`
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// FilterConfig configures which imported listings are kept.
type FilterConfig struct {
	IncludeKeywords []string `yaml:"include_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./roomivo.db"},
		Log:      LogConfig{Level: "info"},
		Cache:    CacheConfig{TTL: "1m"},
		Schedule: ScheduleConfig{
			ImportInterval: "1h",
			ReviewInterval: "10m",
		},
		Sources: SourcesConfig{
			Seed:        SeedConfig{Enabled: true},
			RatePerHost: 1,
			Burst:       2,
		},
		Scoring: ScoringConfig{
			MinMatchScore:     0,
			AlertMinRiskScore: 80,
			Workers:           8,
			DefaultLimit:      20,
		},
		Server: ServerConfig{
			Port:      8080,
			RateLimit: 10,
			Burst:     20,
		},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ROOMIVO_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ROOMIVO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ROOMIVO_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("ROOMIVO_REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("ROOMIVO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("ROOMIVO_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Webhook.URL = v
		cfg.Alerts.Webhook.Enabled = true
	}
	if v := os.Getenv("ROOMIVO_WEBHOOK_SECRET"); v != "" {
		cfg.Alerts.Webhook.Secret = v
	}
}
