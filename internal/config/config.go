package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Store     StoreConfig     `yaml:"store"`
	NATS      NATSConfig      `yaml:"nats"`
	Web       WebConfig       `yaml:"web"`
	Retention RetentionConfig `yaml:"retention"`
	Workers   WorkersConfig   `yaml:"workers"`
	Vault     VaultConfig     `yaml:"vault"`
	Telegram  TelegramConfig  `yaml:"telegram"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type NATSConfig struct {
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Auth    string `yaml:"auth"`
}

type RetentionConfig struct {
	// MaxAge is how long session checkpoints are kept after their last
	// update, regardless of stage.
	MaxAge time.Duration `yaml:"max_age"`
	// CronExpr, when set, schedules purges via a cron expression instead
	// of the poll interval.
	CronExpr     string        `yaml:"cron_expr"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type WorkersConfig struct {
	// Retry policy for calls into external collaborators.
	MaxAttempts int           `yaml:"max_attempts"`
	RetryBase   time.Duration `yaml:"retry_base"`
	RetryMax    time.Duration `yaml:"retry_max"`
}

type VaultConfig struct {
	Passphrase string `yaml:"passphrase"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

func defaults() Config {
	return Config{
		Store: StoreConfig{
			Path: "data/westbay.db",
		},
		NATS: NATSConfig{
			Port:    4222,
			DataDir: "data/nats",
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8080,
		},
		Retention: RetentionConfig{
			MaxAge:       7 * 24 * time.Hour,
			PollInterval: time.Hour,
		},
		Workers: WorkersConfig{
			MaxAttempts: 3,
			RetryBase:   500 * time.Millisecond,
			RetryMax:    10 * time.Second,
		},
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("WESTBAY_CONFIG")
	if path == "" {
		path = "config/westbay.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file, run on defaults + env.
	} else {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WESTBAY_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("WESTBAY_NATS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.NATS.Port = port
		}
	}
	if v := os.Getenv("WESTBAY_WEB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Web.Port = port
		}
	}
	if v := os.Getenv("WESTBAY_WEB_AUTH"); v != "" {
		cfg.Web.Auth = v
	}
	if v := os.Getenv("WESTBAY_VAULT_PASSPHRASE"); v != "" {
		cfg.Vault.Passphrase = v
	}
	if v := os.Getenv("WESTBAY_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("WESTBAY_TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("WESTBAY_RETENTION_MAX_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Retention.MaxAge = d
		}
	}
}
