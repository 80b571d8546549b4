// Package config handles configuration loading and validation for the
// share validator.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the validator service.
type Config struct {
	Validator ValidatorConfig `mapstructure:"validator"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	NewRelic  NewRelicConfig  `mapstructure:"newrelic"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
	API       APIConfig       `mapstructure:"api"`
	Log       LogConfig       `mapstructure:"log"`
}

// ValidatorConfig defines the share-validation worker pool.
type ValidatorConfig struct {
	WorkerPoolSize     int `mapstructure:"worker_pool_size"`
	JobQueueSize       int `mapstructure:"job_queue_size"`
	MaxBlockDataHexLen int `mapstructure:"max_block_data_hex_len"`
}

// RedisConfig defines the dedupe-cache connection.
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WebhookConfig defines operator notification settings.
type WebhookConfig struct {
	DiscordURL   string `mapstructure:"discord_url"`
	TelegramURL  string `mapstructure:"telegram_url"`
	TelegramBot  string `mapstructure:"telegram_bot"`
	TelegramChat string `mapstructure:"telegram_chat"`
	Enabled      bool   `mapstructure:"enabled"`
	PoolName     string `mapstructure:"pool_name"`
	PoolURL      string `mapstructure:"pool_url"`
}

// NewRelicConfig defines APM settings.
type NewRelicConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	AppName    string `mapstructure:"app_name"`
	LicenseKey string `mapstructure:"license_key"`
}

// ProfilingConfig defines pprof server settings.
type ProfilingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bind    string `mapstructure:"bind"`
}

// APIConfig defines the HTTP API server settings.
type APIConfig struct {
	Bind         string        `mapstructure:"bind"`
	DebugEnabled bool          `mapstructure:"debug_enabled"`
	StatsCache   time.Duration `mapstructure:"stats_cache"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/powvalidator")
	}

	v.SetEnvPrefix("POW_VALIDATOR")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("validator.worker_pool_size", 8)
	v.SetDefault("validator.job_queue_size", 256)
	v.SetDefault("validator.max_block_data_hex_len", 10000)

	v.SetDefault("redis.url", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("webhook.enabled", false)

	v.SetDefault("newrelic.enabled", false)
	v.SetDefault("newrelic.app_name", "powvalidator")

	v.SetDefault("profiling.enabled", false)
	v.SetDefault("profiling.bind", "127.0.0.1:6060")

	v.SetDefault("api.bind", "0.0.0.0:8080")
	v.SetDefault("api.debug_enabled", false)
	v.SetDefault("api.stats_cache", "10s")
	v.SetDefault("api.cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if c.Validator.WorkerPoolSize <= 0 {
		return fmt.Errorf("validator.worker_pool_size must be > 0")
	}

	if c.Validator.JobQueueSize <= 0 {
		return fmt.Errorf("validator.job_queue_size must be > 0")
	}

	if c.Validator.MaxBlockDataHexLen <= 0 {
		return fmt.Errorf("validator.max_block_data_hex_len must be > 0")
	}

	if c.API.Bind == "" {
		return fmt.Errorf("api.bind is required")
	}

	return nil
}
