// Package config loads the runtime configuration of the listener.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (PORT, DB_HOST, WEBHOOK_SECRET, ...)
// 3. Default values
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure. It is read once at startup
// and passed explicitly to the components that need it.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// DSN returns the PostgreSQL connection string.
// Priority: DATABASE_URL > constructed from individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

// WebhookConfig holds the shared secret expected in the Authorization header.
// An empty secret disables the check.
type WebhookConfig struct {
	Secret string `mapstructure:"secret"`
}

// AuthEnabled reports whether inbound webhooks must carry the bearer secret.
func (c WebhookConfig) AuthEnabled() bool {
	return c.Secret != ""
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// TracingConfig controls OTLP span export. An empty endpoint keeps the
// no-op tracer.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool   `mapstructure:"insecure"`
}

// envBindings maps config keys to the environment variables the listener
// has always been deployed with. The first name wins when several are set.
var envBindings = map[string][]string{
	"server.port":             {"PORT", "SERVER_PORT"},
	"server.read_timeout":     {"SERVER_READ_TIMEOUT"},
	"server.write_timeout":    {"SERVER_WRITE_TIMEOUT"},
	"server.shutdown_timeout": {"SERVER_SHUTDOWN_TIMEOUT"},
	"database.url":            {"DATABASE_URL"},
	"database.host":           {"DB_HOST"},
	"database.port":           {"DB_PORT"},
	"database.name":           {"DB_NAME"},
	"database.user":           {"DB_USER"},
	"database.password":       {"DB_PASSWORD"},
	"database.sslmode":        {"DB_SSLMODE"},
	"database.max_conns":      {"DB_MAX_CONNS"},
	"database.min_conns":      {"DB_MIN_CONNS"},
	"webhook.secret":          {"WEBHOOK_SECRET"},
	"log.level":               {"LOG_LEVEL"},
	"log.format":              {"LOG_FORMAT"},
	"tracing.endpoint":        {"OTEL_EXPORTER_OTLP_ENDPOINT"},
	"tracing.service_name":    {"OTEL_SERVICE_NAME"},
	"tracing.insecure":        {"OTEL_EXPORTER_OTLP_INSECURE"},
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Webhook.Secret = strings.TrimSpace(cfg.Webhook.Secret)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host must not be empty")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name must not be empty")
		}
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database.max_conns (%d) must be >= database.min_conns (%d)",
			c.Database.MaxConns, c.Database.MinConns)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "openmetadata_history")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.connect_timeout", "10s")

	// Webhook
	v.SetDefault("webhook.secret", "")

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Tracing
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "metadata-change-listener")
	v.SetDefault("tracing.insecure", true)
}
