package conf

import (
	"path/filepath"
	"time"
)

const (
	DefaultHTTPAddr = "127.0.0.1:5040"
	DefaultDBName   = "sentry-slack.db"
)

type ServerConfig struct {
	ConfigDir      string        `mapstructure:"-" json:"config_dir"`
	HTTPAddr       string        `mapstructure:"http_addr" json:"http_addr"`
	BaseURL        string        `mapstructure:"base_url" json:"base_url"`
	DBPath         string        `mapstructure:"db_path" json:"db_path"`
	RedisURL       string        `mapstructure:"redis_url" json:"-"`
	LabelCacheTTL  time.Duration `mapstructure:"label_cache_ttl" json:"label_cache_ttl"`
	WebhookTimeout time.Duration `mapstructure:"webhook_timeout" json:"webhook_timeout"`
	Debug          bool          `mapstructure:"debug" json:"debug"`
}

var ServerDefaults = map[string]any{
	"http_addr":       DefaultHTTPAddr,
	"base_url":        "http://localhost:9000",
	"label_cache_ttl": "10m",
	"webhook_timeout": "10s",
}

func (c *ServerConfig) GetHTTPAddr() string {
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	return c.HTTPAddr
}

func (c *ServerConfig) GetBaseURL() string {
	return c.BaseURL
}

// GetDBPath defaults to a database next to the config file.
func (c *ServerConfig) GetDBPath() string {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.ConfigDir, DefaultDBName)
	}
	return c.DBPath
}

func (c *ServerConfig) GetRedisURL() string {
	return c.RedisURL
}

func (c *ServerConfig) GetLabelCacheTTL() time.Duration {
	return c.LabelCacheTTL
}

func (c *ServerConfig) GetWebhookTimeout() time.Duration {
	return c.WebhookTimeout
}
