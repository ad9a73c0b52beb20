// Package config loads service configuration from a YAML file and DORA_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// EnvPrefix is the prefix of environment overrides. Nested keys are separated by a
// double underscore: DORA_DATABASE__URL sets database.url.
const EnvPrefix = "DORA_"

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	CORS     CORSConfig     `koanf:"cors"`
	Watcher  WatcherConfig  `koanf:"watcher"`
	Alerts   AlertsConfig   `koanf:"alerts"`
}

// ServerConfig configures the API and metrics listeners.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// WatcherConfig configures the periodic deadline watcher.
type WatcherConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Schedule string        `koanf:"schedule"`
	Timeout  time.Duration `koanf:"timeout"`
}

// AlertsConfig configures deadline alert delivery.
type AlertsConfig struct {
	Enabled bool `koanf:"enabled"`
	// Filter is a CEL expression deciding which alerts are delivered.
	Filter   string        `koanf:"filter"`
	DedupTTL time.Duration `koanf:"dedup_ttl"`
	BaseURL  string        `koanf:"base_url"`
	Webhook  WebhookConfig `koanf:"webhook"`
	Redis    RedisConfig   `koanf:"redis"`
}

// WebhookConfig configures the incoming-webhook alert sender.
type WebhookConfig struct {
	URL       string        `koanf:"url"`
	Username  string        `koanf:"username"`
	Channel   string        `koanf:"channel"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
}

// RedisConfig enables shared alert de-duplication across replicas.
type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Watcher: WatcherConfig{
			Enabled:  true,
			Schedule: "@every 1m",
			Timeout:  30 * time.Second,
		},
		Alerts: AlertsConfig{
			Enabled:  false,
			Filter:   `urgency in ["high", "critical", "overdue"]`,
			DedupTTL: 6 * time.Hour,
			Webhook: WebhookConfig{
				Username:  "dora-engine",
				Timeout:   10 * time.Second,
				RateLimit: 1,
			},
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
	}
}

// Load reads the YAML file at path, if it exists, then applies DORA_ environment overrides
// on top of Default.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// envKey maps DORA_ALERTS__WEBHOOK__URL to alerts.webhook.url.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}

	if c.Watcher.Enabled {
		if _, err := cron.ParseStandard(c.Watcher.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("watcher.schedule %q: %w", c.Watcher.Schedule, err))
		}
	}

	if c.Alerts.Enabled {
		if c.Alerts.Webhook.URL == "" {
			errs = append(errs, errors.New("alerts.webhook.url is required when alerts are enabled"))
		}
		if c.Alerts.Webhook.RateLimit <= 0 {
			errs = append(errs, errors.New("alerts.webhook.rate_limit must be positive"))
		}
		if c.Alerts.DedupTTL <= 0 {
			errs = append(errs, errors.New("alerts.dedup_ttl must be positive"))
		}
		if c.Alerts.Redis.Enabled && c.Alerts.Redis.Addr == "" {
			errs = append(errs, errors.New("alerts.redis.addr is required when redis is enabled"))
		}
	}

	return errors.Join(errs...)
}
