package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: Config{
				Validator: ValidatorConfig{
					WorkerPoolSize:     8,
					JobQueueSize:       256,
					MaxBlockDataHexLen: 10000,
				},
				API: APIConfig{Bind: "0.0.0.0:8080"},
			},
			wantErr: false,
		},
		{
			name: "missing worker pool size",
			config: Config{
				Validator: ValidatorConfig{
					JobQueueSize:       256,
					MaxBlockDataHexLen: 10000,
				},
				API: APIConfig{Bind: "0.0.0.0:8080"},
			},
			wantErr: true,
			errMsg:  "validator.worker_pool_size must be > 0",
		},
		{
			name: "missing job queue size",
			config: Config{
				Validator: ValidatorConfig{
					WorkerPoolSize:     8,
					MaxBlockDataHexLen: 10000,
				},
				API: APIConfig{Bind: "0.0.0.0:8080"},
			},
			wantErr: true,
			errMsg:  "validator.job_queue_size must be > 0",
		},
		{
			name: "missing max block data hex len",
			config: Config{
				Validator: ValidatorConfig{
					WorkerPoolSize: 8,
					JobQueueSize:   256,
				},
				API: APIConfig{Bind: "0.0.0.0:8080"},
			},
			wantErr: true,
			errMsg:  "validator.max_block_data_hex_len must be > 0",
		},
		{
			name: "missing api bind",
			config: Config{
				Validator: ValidatorConfig{
					WorkerPoolSize:     8,
					JobQueueSize:       256,
					MaxBlockDataHexLen: 10000,
				},
			},
			wantErr: true,
			errMsg:  "api.bind is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				} else if tt.errMsg != "" && err.Error() != tt.errMsg {
					t.Errorf("Error = %q, want %q", err.Error(), tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
			}
		})
	}
}

func TestConfigStructs(t *testing.T) {
	validator := ValidatorConfig{
		WorkerPoolSize:     8,
		JobQueueSize:       256,
		MaxBlockDataHexLen: 10000,
	}
	if validator.WorkerPoolSize != 8 {
		t.Errorf("ValidatorConfig.WorkerPoolSize = %d, want 8", validator.WorkerPoolSize)
	}

	redis := RedisConfig{
		URL:      "localhost:6379",
		Password: "secret",
		DB:       1,
	}
	if redis.DB != 1 {
		t.Errorf("RedisConfig.DB = %d, want 1", redis.DB)
	}

	webhook := WebhookConfig{
		Enabled:      true,
		DiscordURL:   "https://discord.com/api/webhooks/...",
		TelegramBot:  "bot_token",
		TelegramChat: "chat_id",
		PoolURL:      "https://pool.example.com",
	}
	if !webhook.Enabled {
		t.Error("WebhookConfig.Enabled should be true")
	}

	profiling := ProfilingConfig{
		Enabled: true,
		Bind:    "127.0.0.1:6060",
	}
	if !profiling.Enabled {
		t.Error("ProfilingConfig.Enabled should be true")
	}

	newrelic := NewRelicConfig{
		Enabled:    true,
		AppName:    "powvalidator",
		LicenseKey: "license_key_here",
	}
	if newrelic.AppName != "powvalidator" {
		t.Errorf("NewRelicConfig.AppName = %s, want powvalidator", newrelic.AppName)
	}

	api := APIConfig{
		Bind:         "0.0.0.0:8080",
		DebugEnabled: true,
		StatsCache:   10 * time.Second,
		CORSOrigins:  []string{"*"},
	}
	if !api.DebugEnabled {
		t.Error("APIConfig.DebugEnabled should be true")
	}

	log := LogConfig{
		Level:  "debug",
		Format: "json",
		File:   "/var/log/powvalidator.log",
	}
	if log.Level != "debug" {
		t.Errorf("LogConfig.Level = %s, want debug", log.Level)
	}
}

func TestLoadWithTempConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
validator:
  worker_pool_size: 4
  job_queue_size: 128
  max_block_data_hex_len: 10000

api:
  bind: "0.0.0.0:9090"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Validator.WorkerPoolSize != 4 {
		t.Errorf("Validator.WorkerPoolSize = %d, want 4", cfg.Validator.WorkerPoolSize)
	}

	if cfg.API.Bind != "0.0.0.0:9090" {
		t.Errorf("API.Bind = %s, want 0.0.0.0:9090", cfg.API.Bind)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Explicit zero worker pool size overrides the default and fails validation.
	configContent := `
validator:
  worker_pool_size: 0
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() should return error for invalid config")
	}
}

func TestLoadNonexistentConfig(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() should return error for non-existent config")
	}
}
