package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	TokenTTL    time.Duration `mapstructure:"TOKEN_TTL"`
	Port        int           `mapstructure:"PORT"`
	GinMode     string        `mapstructure:"GIN_MODE"`
	LogLevel    string        `mapstructure:"LOG_LEVEL"`

	// Optional NATS relay for live events between server instances.
	NATSURL     string `mapstructure:"NATS_URL"`
	NATSSubject string `mapstructure:"NATS_SUBJECT"`

	// Optional redis-backed rate limiting.
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int    `mapstructure:"REDIS_DB"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`

	// MessagingRequiresConnection restricts direct messages to accepted connections.
	MessagingRequiresConnection bool `mapstructure:"MESSAGING_REQUIRES_CONNECTION"`
}

var AppConfig *Config

var defaults = map[string]any{
	"DATABASE_URL":                  "",
	"JWT_SECRET":                    "",
	"TOKEN_TTL":                     7 * 24 * time.Hour,
	"PORT":                          8080,
	"GIN_MODE":                      "debug",
	"LOG_LEVEL":                     "info",
	"NATS_URL":                      "",
	"NATS_SUBJECT":                  "studenthelp.events",
	"REDIS_ADDR":                    "",
	"REDIS_PASSWORD":                "",
	"REDIS_DB":                      0,
	"RATE_LIMIT_PER_MINUTE":         30,
	"MESSAGING_REQUIRES_CONNECTION": false,
}

// LoadConfig loads the configuration from a .env file and environment variables
// and stores it in AppConfig.
func LoadConfig() (*Config, error) {
	return Load(".")
}

// Load reads <dir>/.env (if present) and the environment. Environment values win.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		slog.Warn(".env file not found, loading from environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	AppConfig = &cfg
	return &cfg, nil
}

// SlogLevel maps LOG_LEVEL onto a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
