package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Feed     FeedConfig     `mapstructure:"feed"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// FeedConfig points at the external price feed.
type FeedConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`
}

type LedgerConfig struct {
	// InitialBalance is the default starting USD allowance, as a decimal
	// string. Empty means the built-in default.
	InitialBalance string `mapstructure:"initial_balance" validate:"omitempty,numeric"`
	// IdempotentInit makes re-initializing an existing portfolio a no-op
	// instead of an error.
	IdempotentInit bool `mapstructure:"idempotent_init"`
}

type AlertsConfig struct {
	// SweepInterval is how often alerted coins are refreshed and the alert
	// set evaluated. Zero disables the background sweeper.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LogConfig defines the logger options.
type LogConfig struct {
	Level       string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format      string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	OutputFile  string `mapstructure:"output_file"`
	Environment string `mapstructure:"environment" validate:"omitempty,oneof=dev prod"`
}

// Load reads config.yaml via Viper, applies environment variable overrides
// (dot notation mapped to underscores, e.g. FEED_BASE_URL) and validates the
// result.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)

	v.SetDefault("feed.base_url", "https://api.coingecko.com")
	v.SetDefault("feed.timeout", 10*time.Second)
	v.SetDefault("log.level", "info")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
