package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/taskrythm/taskrythm/internal/database"
)

// Config represents the runtime configuration for the TaskRythm backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	AI          AIConfig          `mapstructure:"ai"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port      int             `mapstructure:"port"`
	LogLevel  string          `mapstructure:"log_level"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig controls the per-IP request limiter.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthConfig captures bearer-token validation settings.
type AuthConfig struct {
	Mode string         `mapstructure:"mode"` // oidc | dev
	OIDC OIDCConfig     `mapstructure:"oidc"`
	Dev  DevTokenConfig `mapstructure:"dev"`
}

// OIDCConfig points at the external identity provider.
type OIDCConfig struct {
	Issuer   string `mapstructure:"issuer"`
	Audience string `mapstructure:"audience"`
}

// DevTokenConfig configures locally minted HS256 tokens for development and tests.
type DevTokenConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// AIConfig configures the hosted generative model integration.
type AIConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// MaintenanceConfig schedules background tidy jobs.
type MaintenanceConfig struct {
	InviteSchedule        string `mapstructure:"invite_schedule"`
	ActivitySchedule      string `mapstructure:"activity_schedule"`
	ActivityRetentionDays int    `mapstructure:"activity_retention_days"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("TASKRYTHM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Auth.Mode) {
	case "oidc":
		if strings.TrimSpace(c.Auth.OIDC.Issuer) == "" {
			return errors.New("config: auth.oidc.issuer is required in oidc mode")
		}
		if strings.TrimSpace(c.Auth.OIDC.Audience) == "" {
			return errors.New("config: auth.oidc.audience is required in oidc mode")
		}
	case "dev":
		if strings.TrimSpace(c.Auth.Dev.Secret) == "" {
			return errors.New("config: auth.dev.secret is required in dev mode")
		}
	default:
		return fmt.Errorf("config: unknown auth mode %q", c.Auth.Mode)
	}

	if c.AI.Enabled && strings.TrimSpace(c.AI.APIKey) == "" {
		return errors.New("config: ai.api_key is required when ai is enabled")
	}

	return nil
}

// DatabaseSettings converts the viper section into database.Config.
func (c *Config) DatabaseSettings() database.Config {
	cfg := database.Config{
		Driver: c.Database.Driver,
		Path:   c.Database.Path,
		DSN:    c.Database.DSN,
	}

	switch strings.ToLower(c.Database.Driver) {
	case "postgres":
		cfg.Host = c.Database.Postgres.Host
		cfg.Port = c.Database.Postgres.Port
		cfg.User = c.Database.Postgres.Username
		cfg.Password = c.Database.Postgres.Password
		cfg.Name = c.Database.Postgres.Database
	case "mysql":
		cfg.Host = c.Database.MySQL.Host
		cfg.Port = c.Database.MySQL.Port
		cfg.User = c.Database.MySQL.Username
		cfg.Password = c.Database.MySQL.Password
		cfg.Name = c.Database.MySQL.Database
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.rate_limit.requests", 100)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/taskrythm.sqlite")

	v.SetDefault("auth.mode", "oidc")
	v.SetDefault("auth.dev.issuer", "taskrythm-dev")
	v.SetDefault("auth.dev.ttl", "12h")

	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.model", "claude-sonnet-4-5")
	v.SetDefault("ai.max_tokens", 4096)
	v.SetDefault("ai.timeout", "60s")

	v.SetDefault("maintenance.invite_schedule", "@hourly")
	v.SetDefault("maintenance.activity_schedule", "@daily")
	v.SetDefault("maintenance.activity_retention_days", 0)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.endpoint", "/metrics")
}

func decodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}
