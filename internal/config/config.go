// Package config loads service settings from defaults, an optional
// config.yaml and OBMON_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/abelzeko/ob-river-monitor/internal/entities"
	"github.com/abelzeko/ob-river-monitor/internal/stations"
)

// EnvPrefix is prepended to every environment key, e.g. OBMON_HTTP_ADDR
const EnvPrefix = "OBMON"

// Config holds all service settings.
type Config struct {
	HTTPAddr           string        `mapstructure:"http_addr"`
	LogLevel           string        `mapstructure:"log_level"`
	LogFormat          string        `mapstructure:"log_format"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
	UserAgent          string        `mapstructure:"user_agent"`
	DBPath             string        `mapstructure:"db_path"`
	RefreshSchedule    string        `mapstructure:"refresh_schedule"`
	TelegramToken      string        `mapstructure:"telegram_token"`
	OpenAIAPIKey       string        `mapstructure:"openai_api_key"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`

	// Stations overrides the built-in registry when non-empty
	Stations []entities.StationConfig `mapstructure:"stations"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8000")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("cache_ttl", "10m")
	v.SetDefault("fetch_timeout", "10s")
	v.SetDefault("user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("db_path", "data/readings.db")
	v.SetDefault("refresh_schedule", "*/10 * * * *")
	v.SetDefault("telegram_token", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("cors_allowed_origins", []string{})
	v.SetDefault("shutdown_timeout", "10s")
}

// Load reads configuration. path is a directory searched for config.yaml;
// a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.CORSAllowedOrigins = splitOrigins(cfg.CORSAllowedOrigins)

	if len(cfg.Stations) == 0 {
		cfg.Stations = stations.DefaultStations()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.CacheTTL <= 0 {
		return errors.New("invalid cache_ttl: must be positive")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("invalid fetch_timeout: must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("invalid shutdown_timeout: must be positive")
	}
	if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
		return fmt.Errorf("invalid refresh_schedule %q: %w", c.RefreshSchedule, err)
	}
	if _, err := stations.NewRegistry(c.Stations); err != nil {
		return fmt.Errorf("invalid stations: %w", err)
	}
	return nil
}

// Registry builds the station registry from the loaded configuration
func (c *Config) Registry() (*stations.Registry, error) {
	return stations.NewRegistry(c.Stations)
}

// splitOrigins accepts both a yaml list and a comma-separated env value
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
