package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	DatabaseURL         string `mapstructure:"database_url" validate:"required"`
	HTTPAddr            string `mapstructure:"http_addr" validate:"required"`
	JWTSecret           string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
	TelegramToken       string `mapstructure:"telegram_token"`
	ReportIntervalHours int    `mapstructure:"report_interval_hours" validate:"gte=0,lte=168"`
	Timezone            string `mapstructure:"timezone" validate:"required,timezone"`
	LogLevel            string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LookaheadDays       int    `mapstructure:"lookahead_days" validate:"gte=1,lte=366"`
	StreakLookbackDays  int    `mapstructure:"streak_lookback_days" validate:"gte=1,lte=3660"`
	GrassMonths         int    `mapstructure:"grass_months" validate:"gte=1,lte=24"`
	JobWorkers          int    `mapstructure:"job_workers" validate:"gte=1,lte=64"`
	JobClaimTTLMinutes  int    `mapstructure:"job_claim_ttl_minutes" validate:"gte=1,lte=1440"`
	DailyJobTime        string `mapstructure:"daily_job_time" validate:"required,datetime=15:04"`
	ExpireJobTime       string `mapstructure:"expire_job_time" validate:"required,datetime=15:04"`

	location *time.Location
}

var defaults = map[string]any{
	"database_url":          "daily_tracker.db",
	"http_addr":             ":8080",
	"jwt_secret":            "",
	"telegram_token":        "",
	"report_interval_hours": 5,
	"timezone":              "UTC",
	"log_level":             "info",
	"lookahead_days":        7,
	"streak_lookback_days":  30,
	"grass_months":          6,
	"job_workers":           4,
	"job_claim_ttl_minutes": 60,
	"daily_job_time":        "00:00",
	"expire_job_time":       "01:00",
}

// Load reads configuration from an optional .env file, an optional config
// file and environment variables. Environment variables win.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.trim()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	return &cfg, nil
}

func (c *Config) trim() {
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)
	c.TelegramToken = strings.TrimSpace(c.TelegramToken)
	c.Timezone = strings.TrimSpace(c.Timezone)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Location is the reference zone for every calendar-day computation.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// JobClaimTTL is how long a running batch claim blocks other triggers.
func (c *Config) JobClaimTTL() time.Duration {
	return time.Duration(c.JobClaimTTLMinutes) * time.Minute
}

// ReportInterval is how often the chat summary is pushed; zero disables it.
func (c *Config) ReportInterval() time.Duration {
	return time.Duration(c.ReportIntervalHours) * time.Hour
}
