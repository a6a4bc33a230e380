// internal/config/config.go
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	custom_errors "github-showcase/internal/errors"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	SiteURL  string `mapstructure:"SITE_URL"`

	DBURL    string `mapstructure:"DB_URL"`
	RedisURL string `mapstructure:"REDIS_URL"`

	GithubToken        string `mapstructure:"GITHUB_TOKEN"`
	GithubClientID     string `mapstructure:"GITHUB_CLIENT_ID"`
	GithubClientSecret string `mapstructure:"GITHUB_CLIENT_SECRET"`
	GithubRedirectURL  string `mapstructure:"GITHUB_REDIRECT_URL"`

	// RefreshInterval is the minimum time between two user-requested refreshes.
	RefreshInterval   time.Duration `mapstructure:"REFRESH_INTERVAL"`
	AutoRefreshEvery  time.Duration `mapstructure:"AUTO_REFRESH_EVERY"`
	AutoRefreshAfter  time.Duration `mapstructure:"AUTO_REFRESH_AFTER"`
	SyncTimeout       time.Duration `mapstructure:"SYNC_TIMEOUT"`
	SyncConcurrency   int           `mapstructure:"SYNC_CONCURRENCY"`
	CacheTTL          time.Duration `mapstructure:"CACHE_TTL"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	SessionCookieName string        `mapstructure:"SESSION_COOKIE_NAME"`
	SecureCookies     bool          `mapstructure:"SECURE_COOKIES"`
	DefaultLocale     string        `mapstructure:"DEFAULT_LOCALE"`

	KafkaBrokers   []string `mapstructure:"KAFKA_BROKERS"`
	KafkaViewTopic string   `mapstructure:"KAFKA_VIEW_TOPIC"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// durationKeys accept Go durations ("1h30m") or bare integer milliseconds.
var durationKeys = []string{
	"REFRESH_INTERVAL",
	"AUTO_REFRESH_EVERY",
	"AUTO_REFRESH_AFTER",
	"SYNC_TIMEOUT",
	"CACHE_TTL",
	"SESSION_TTL",
}

// Load reads configuration through the given viper instance.
func Load(v *viper.Viper) (*Config, error) {
	read(v)
	millisToDurations(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DatabaseURL reads only DB_URL, for commands that do not serve.
func DatabaseURL(v *viper.Viper) (string, error) {
	read(v)
	dbURL := v.GetString("DB_URL")
	if dbURL == "" {
		return "", &custom_errors.ErrInvalidConfig{Key: "DB_URL", Reason: "is a required configuration field"}
	}
	return dbURL, nil
}

func read(v *viper.Viper) {
	setDefaults(v)

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("SITE_URL", "http://localhost:8080")
	v.SetDefault("DB_URL", "")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("GITHUB_TOKEN", "")
	v.SetDefault("GITHUB_CLIENT_ID", "")
	v.SetDefault("GITHUB_CLIENT_SECRET", "")
	v.SetDefault("GITHUB_REDIRECT_URL", "http://localhost:8080/auth/github/callback")
	v.SetDefault("REFRESH_INTERVAL", "1h")
	v.SetDefault("AUTO_REFRESH_EVERY", "30m")
	v.SetDefault("AUTO_REFRESH_AFTER", "24h")
	v.SetDefault("SYNC_TIMEOUT", "10m")
	v.SetDefault("SYNC_CONCURRENCY", 5)
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("SESSION_COOKIE_NAME", "showcase_sid")
	v.SetDefault("SECURE_COOKIES", false)
	v.SetDefault("DEFAULT_LOCALE", "en")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_VIEW_TOPIC", "showcase.views")
}

func (c *Config) validate() error {
	if c.DBURL == "" {
		return &custom_errors.ErrInvalidConfig{Key: "DB_URL", Reason: "is a required configuration field"}
	}
	if c.GithubToken == "" {
		return &custom_errors.ErrInvalidConfig{Key: "GITHUB_TOKEN", Reason: "is a required configuration field"}
	}
	if c.RefreshInterval <= 0 {
		return &custom_errors.ErrInvalidConfig{Key: "REFRESH_INTERVAL", Reason: "must be positive"}
	}
	if c.SyncConcurrency <= 0 {
		return &custom_errors.ErrInvalidConfig{Key: "SYNC_CONCURRENCY", Reason: "must be positive"}
	}
	if c.AutoRefreshEvery < 0 || c.AutoRefreshAfter < 0 {
		return &custom_errors.ErrInvalidConfig{Key: "AUTO_REFRESH_EVERY", Reason: "must not be negative"}
	}
	return nil
}

func millisToDurations(v *viper.Viper) {
	for _, key := range durationKeys {
		ms, err := strconv.ParseInt(strings.TrimSpace(v.GetString(key)), 10, 64)
		if err != nil {
			continue
		}
		v.Set(key, (time.Duration(ms) * time.Millisecond).String())
	}
}

// splitList accepts both "a,b" env values and real slices.
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
