package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-jwt-secret"

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	HTTPPort string `mapstructure:"HTTP_PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Timezone string `mapstructure:"APP_TIMEZONE"`

	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	JWTIssuer   string        `mapstructure:"JWT_ISSUER"`
	JWTLeeway   time.Duration `mapstructure:"JWT_LEEWAY"`

	StorefrontBaseURL string        `mapstructure:"STOREFRONT_BASE_URL"`
	StorefrontTimeout time.Duration `mapstructure:"STOREFRONT_TIMEOUT"`
	StorefrontAPIKey  string        `mapstructure:"STOREFRONT_API_KEY"`

	CustomerCacheBackend string        `mapstructure:"CUSTOMER_CACHE_BACKEND"`
	CustomerCacheTTL     time.Duration `mapstructure:"CUSTOMER_CACHE_TTL"`
	RedisAddr            string        `mapstructure:"REDIS_ADDR"`
	RedisPassword        string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB              int           `mapstructure:"REDIS_DB"`

	WizardTTL           time.Duration `mapstructure:"WIZARD_TTL"`
	WizardSweepInterval time.Duration `mapstructure:"WIZARD_SWEEP_INTERVAL"`

	RateLimitPerMinute int      `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int      `mapstructure:"RATE_LIMIT_BURST"`
	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	MetricsEnabled bool   `mapstructure:"METRICS_ENABLED"`
	MetricsPath    string `mapstructure:"METRICS_PATH"`

	DefaultDepositPercent int `mapstructure:"DEFAULT_DEPOSIT_PERCENT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_TIMEZONE", "Asia/Ho_Chi_Minh")
	v.SetDefault("DATABASE_URL", "file:photogo.db?_pragma=busy_timeout(5000)")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_LEEWAY", "30s")
	v.SetDefault("STOREFRONT_BASE_URL", "http://localhost:3001/api")
	v.SetDefault("STOREFRONT_TIMEOUT", "10s")
	v.SetDefault("STOREFRONT_API_KEY", "")
	v.SetDefault("CUSTOMER_CACHE_BACKEND", "db")
	v.SetDefault("CUSTOMER_CACHE_TTL", "720h")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("WIZARD_TTL", "30m")
	v.SetDefault("WIZARD_SWEEP_INTERVAL", "1m")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PATH", "/metrics")
	v.SetDefault("DEFAULT_DEPOSIT_PERCENT", 30)
}

// Load reads .env (if present), then config.yaml (if present), then the
// environment. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.CustomerCacheBackend = strings.ToLower(strings.TrimSpace(cfg.CustomerCacheBackend))
	cfg.StorefrontBaseURL = strings.TrimRight(strings.TrimSpace(cfg.StorefrontBaseURL), "/")
	cfg.CORSAllowedOrigins = splitList(cfg.CORSAllowedOrigins)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT must not be empty")
	}
	if cfg.StorefrontBaseURL == "" {
		return fmt.Errorf("STOREFRONT_BASE_URL must not be empty")
	}
	if cfg.StorefrontTimeout <= 0 {
		return fmt.Errorf("STOREFRONT_TIMEOUT must be > 0")
	}
	if cfg.WizardSweepInterval <= 0 {
		return fmt.Errorf("WIZARD_SWEEP_INTERVAL must be > 0")
	}
	if cfg.JWTLeeway < 0 {
		return fmt.Errorf("JWT_LEEWAY must be >= 0")
	}
	if cfg.WizardTTL < 0 {
		return fmt.Errorf("WIZARD_TTL must be >= 0")
	}
	switch cfg.CustomerCacheBackend {
	case "db":
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when CUSTOMER_CACHE_BACKEND=db")
		}
	case "redis":
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR must be set when CUSTOMER_CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CUSTOMER_CACHE_BACKEND must be one of: db, redis")
	}
	switch cfg.DefaultDepositPercent {
	case 30, 50, 70, 100:
	default:
		return fmt.Errorf("DEFAULT_DEPOSIT_PERCENT must be one of: 30, 50, 70, 100")
	}
	if cfg.MetricsEnabled && !strings.HasPrefix(cfg.MetricsPath, "/") {
		return fmt.Errorf("METRICS_PATH must start with /")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}
	return nil
}

// Location resolves APP_TIMEZONE, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool { return isProdLike(c.AppEnv) }

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
