package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database      DatabaseConfig `yaml:"database"`
	RabbitMQ      RabbitMQConfig `yaml:"rabbitmq"`
	CMS           CMSConfig      `yaml:"cms"`
	SEO           SEOConfig      `yaml:"seo"`
	Analytics     TokenAPIConfig `yaml:"analytics"`
	SearchConsole TokenAPIConfig `yaml:"search_console"`
	Webhooks      WebhookConfig  `yaml:"webhooks"`
	Sync          SyncConfig     `yaml:"sync"`
	LogLevel      string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RabbitMQConfig configures the optional event bus. An empty URL disables
// publishing.
type RabbitMQConfig struct {
	URL       string `yaml:"url"`
	Exchange  string `yaml:"exchange"`
	QueueName string `yaml:"queue_name"`
}

type CMSConfig struct {
	BaseURL  string        `yaml:"base_url"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
	Retry    RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type SEOConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Login    string        `yaml:"login"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
	Location string        `yaml:"location"`
	Language string        `yaml:"language"`
}

// TokenAPIConfig covers the bearer-token audit sources. An empty base URL
// leaves the source out of the audit entirely.
type TokenAPIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// WebhookConfig maps event types to destination URLs. Unmapped event types
// are silently skipped by the notifier.
type WebhookConfig struct {
	Destinations map[string]string `yaml:"destinations"`
	Timeout      time.Duration     `yaml:"timeout"`
}

type SyncConfig struct {
	Interval       time.Duration `yaml:"interval"`
	NotifyInterval time.Duration `yaml:"notify_interval"`
	MaxCrawlPages  int           `yaml:"max_crawl_pages"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "cms_syncer"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "cms_events"
	}
	if c.CMS.BaseURL == "" {
		c.CMS.BaseURL = "https://api.duda.co/api"
	}
	if c.CMS.PageSize == 0 {
		c.CMS.PageSize = 100
	}
	if c.CMS.Timeout == 0 {
		c.CMS.Timeout = 30 * time.Second
	}
	if c.CMS.Retry.MaxAttempts == 0 {
		c.CMS.Retry.MaxAttempts = 3
	}
	if c.CMS.Retry.InitialBackoff == 0 {
		c.CMS.Retry.InitialBackoff = 1 * time.Second
	}
	if c.CMS.Retry.MaxBackoff == 0 {
		c.CMS.Retry.MaxBackoff = 30 * time.Second
	}
	if c.SEO.BaseURL == "" {
		c.SEO.BaseURL = "https://api.dataforseo.com/v3"
	}
	if c.SEO.Timeout == 0 {
		c.SEO.Timeout = 60 * time.Second
	}
	if c.SEO.Location == "" {
		c.SEO.Location = "United States"
	}
	if c.SEO.Language == "" {
		c.SEO.Language = "en"
	}
	if c.Analytics.Timeout == 0 {
		c.Analytics.Timeout = 30 * time.Second
	}
	if c.SearchConsole.Timeout == 0 {
		c.SearchConsole.Timeout = 30 * time.Second
	}
	if c.Webhooks.Timeout == 0 {
		c.Webhooks.Timeout = 10 * time.Second
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 15 * time.Minute
	}
	if c.Sync.NotifyInterval == 0 {
		c.Sync.NotifyInterval = 1 * time.Minute
	}
	if c.Sync.MaxCrawlPages == 0 {
		c.Sync.MaxCrawlPages = 500
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
