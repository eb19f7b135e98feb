package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config 配置结构体，默认值由 NewConfig 提供，环境变量可覆盖
type Config struct {
	Version string `yaml:"version"`

	Scheme struct {
		Name        string `yaml:"name" env:"NAME"`
		Host        string `yaml:"host" env:"HOST"`
		Environment string `yaml:"environment" env:"ENVIRONMENT"`
		AssetRoot   string `yaml:"assetRoot" env:"ASSET_ROOT"`
		QueueSize   int    `yaml:"queueSize" env:"QUEUE_SIZE"`
	} `yaml:"scheme" envPrefix:"SCHEME_"`

	CDP struct {
		DevToolsURL string `yaml:"devToolsURL" env:"DEVTOOLS_URL"`
		Origin      string `yaml:"origin" env:"ORIGIN"`
		Upstream    string `yaml:"upstream" env:"UPSTREAM"`
		TimeoutMS   int    `yaml:"timeoutMS" env:"TIMEOUT_MS"`
	} `yaml:"cdp" envPrefix:"CDP_"`

	Network struct {
		MaxRetries       int    `yaml:"maxRetries" env:"MAX_RETRIES"`
		LowPrioritySlots int    `yaml:"lowPrioritySlots" env:"LOW_PRIORITY_SLOTS"`
		UserAgent        string `yaml:"userAgent" env:"USER_AGENT"`
		Validators       string `yaml:"validators" env:"VALIDATORS"` // sqlite / redis / none
		RedisAddr        string `yaml:"redisAddr" env:"REDIS_ADDR"`
		ValidatorTTLHour int    `yaml:"validatorTTLHour" env:"VALIDATOR_TTL_HOUR"`
	} `yaml:"network" envPrefix:"NETWORK_"`

	Sqlite struct {
		Dsn    string `yaml:"dsn" env:"DSN"`
		Prefix string `yaml:"prefix" env:"PREFIX"`
	} `yaml:"sqlite" envPrefix:"SQLITE_"`

	Log struct {
		Level      string   `yaml:"level" env:"LEVEL"`
		Writer     []string `yaml:"writer" env:"WRITER" envSeparator:","`
		File       string   `yaml:"file" env:"FILE"`
		MaxSizeMB  int      `yaml:"maxSizeMB" env:"MAX_SIZE_MB"`
		MaxBackups int      `yaml:"maxBackups" env:"MAX_BACKUPS"`
		MaxAgeDays int      `yaml:"maxAgeDays" env:"MAX_AGE_DAYS"`
	} `yaml:"log" envPrefix:"LOG_"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	c := &Config{Version: "1.0.0"}
	c.Scheme.Name = "wmfapp"
	c.Scheme.Host = "app"
	c.Scheme.Environment = "production"
	c.Scheme.AssetRoot = "assets"
	c.Scheme.QueueSize = 64
	c.CDP.DevToolsURL = "http://127.0.0.1:9222"
	c.CDP.Origin = "https://app.local"
	c.CDP.Upstream = "en.wikipedia.org"
	c.CDP.TimeoutMS = 3000
	c.Network.MaxRetries = 3
	c.Network.LowPrioritySlots = 2
	c.Network.UserAgent = "appscheme/1.0"
	c.Network.Validators = "sqlite"
	c.Network.ValidatorTTLHour = 24 * 7
	c.Sqlite.Dsn = "db.sqlite3"
	c.Sqlite.Prefix = "appscheme_"
	c.Log.Level = "debug"
	c.Log.Writer = []string{"console", "file"}
	c.Log.File = "logs/appscheme.log"
	c.Log.MaxSizeMB = 10
	c.Log.MaxBackups = 5
	c.Log.MaxAgeDays = 30
	return c
}

// Load 在默认配置基础上应用 APPSCHEME_ 前缀的环境变量
func Load() (*Config, error) {
	c := NewConfig()
	if err := env.ParseWithOptions(c, env.Options{Prefix: "APPSCHEME_"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Scheme.Name == "" {
		return fmt.Errorf("config: scheme name is empty")
	}
	if c.Scheme.Name == "http" || c.Scheme.Name == "https" {
		return fmt.Errorf("config: scheme %q collides with a transport scheme", c.Scheme.Name)
	}
	if c.CDP.Upstream == "" {
		return fmt.Errorf("config: cdp upstream host is empty")
	}
	if c.Scheme.QueueSize <= 0 {
		return fmt.Errorf("config: queue size must be positive")
	}
	switch c.Network.Validators {
	case "sqlite", "none":
	case "redis":
		if c.Network.RedisAddr == "" {
			return fmt.Errorf("config: redis validators require a redis address")
		}
	default:
		return fmt.Errorf("config: unknown validator backend %q", c.Network.Validators)
	}
	return nil
}
