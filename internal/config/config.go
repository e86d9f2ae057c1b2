// Package config loads the application configuration from the environment.
//
// Variables use the ZROUTER_ prefix and a double underscore between nesting
// levels, so ZROUTER_SERVER__READ_TIMEOUT lands in Config.Server.ReadTimeout.
// A `.env` file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "ZROUTER_"

// Config is the root configuration object.
//
// Optional blocks (auth, database, redis, alerts, rate limit) are disabled when their
// key fields are empty.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Router        RouterConfig         `koanf:"router"`
	Auth          AuthConfig           `koanf:"auth"`
	Database      DatabaseConfig       `koanf:"database"`
	Redis         RedisConfig          `koanf:"redis"`
	Alerts        AlertsConfig         `koanf:"alerts"`
	RateLimit     RateLimitConfig      `koanf:"rate_limit"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig holds the HTTP server settings. Timeouts are in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// RouterConfig controls the routing adapter.
type RouterConfig struct {
	// Prefix is prepended to every route the API router registers (e.g. "/api").
	Prefix              string `koanf:"prefix"`
	SuccessMessage      string `koanf:"success_message"`
	UnauthorizedMessage string `koanf:"unauthorized_message"`
}

// AuthConfig enables Clerk session verification when SecretKey is set.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key"`
}

// DatabaseConfig enables the Postgres pool when Host is set. Lifetimes are
// in seconds.
type DatabaseConfig struct {
	Host            string `koanf:"host"`
	Port            int    `koanf:"port" validate:"required_with=Host"`
	User            string `koanf:"user" validate:"required_with=Host"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required_with=Host"`
	SSLMode         string `koanf:"ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns        int32  `koanf:"max_conns" validate:"gte=0"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"gte=0"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"gte=0"`
}

func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN builds the postgres:// connection string.
func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// RedisConfig enables redis (health checks, error report jobs) when Address is set.
type RedisConfig struct {
	Address string `koanf:"address"`
}

// AlertsConfig enables emailed error reports when ResendAPIKey and To are set.
// Reports are queued through redis, so Redis.Address must be set as well.
type AlertsConfig struct {
	ResendAPIKey string   `koanf:"resend_api_key"`
	From         string   `koanf:"from" validate:"omitempty,email"`
	To           []string `koanf:"to" validate:"omitempty,dive,email"`
}

// Enabled reports whether error reports should be mailed.
func (a AlertsConfig) Enabled() bool {
	return a.ResendAPIKey != "" && len(a.To) > 0
}

// RateLimitConfig enables the in-memory rate limiter when RequestsPerSecond > 0.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gte=0"`
	Burst             int     `koanf:"burst" validate:"gte=0"`
}

// LoadConfig reads, validates and completes the configuration.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	// Unmarshal on top of the defaults so a partial observability block
	// only overrides what it sets.
	mainConfig := &Config{
		Observability: DefaultObservabilityConfig(),
	}

	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if err := mainConfig.Complete(); err != nil {
		return nil, err
	}

	return mainConfig, nil
}

// Complete validates c and fills in defaults. LoadConfig calls it; tests that
// build a Config by hand should call it too.
func (c *Config) Complete() error {
	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}

	c.Observability.ServiceName = "zrouter"
	c.Observability.Environment = c.Primary.Env

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

// listKeys are split on commas; every other value is taken verbatim.
var listKeys = map[string]bool{
	"server.cors_allowed_origins": true,
	"alerts.to":                   true,
}

// envValue maps ZROUTER_SERVER__READ_TIMEOUT to server.read_timeout.
func envValue(name, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")

	if listKeys[key] {
		items := strings.Split(value, ",")
		for i := range items {
			items[i] = strings.TrimSpace(items[i])
		}
		return key, items
	}

	return key, value
}
