package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	sslModeDisable = "disable"
	sslModeRequire = "require"

	LogModeProduction  = "production"
	LogModeDevelopment = "development"
)

type (
	Config struct {
		Host       string `mapstructure:"HOST"`
		Port       string `mapstructure:"PORT"`
		DBHost     string `mapstructure:"DB_HOST"`
		DBPort     string `mapstructure:"DB_PORT"`
		DBUser     string `mapstructure:"DB_USER"`
		DBPassword string `mapstructure:"DB_PASSWORD"`
		DBName     string `mapstructure:"DB_NAME"`
		DBSSLMode  string `mapstructure:"DB_SSL_MODE"`

		RedisAddr     string        `mapstructure:"REDIS_ADDR"`
		RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
		RedisDB       int           `mapstructure:"REDIS_DB"`
		CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`

		MediaRoot string `mapstructure:"MEDIA_ROOT"`
		LogMode   string `mapstructure:"LOG_MODE"`
	}
)

var defaults = map[string]interface{}{
	"HOST":           "0.0.0.0",
	"PORT":           "8000",
	"DB_HOST":        "0.0.0.0",
	"DB_PORT":        "5432",
	"DB_USER":        "user",
	"DB_PASSWORD":    "password",
	"DB_NAME":        "foodgram",
	"DB_SSL_MODE":    sslModeDisable,
	"REDIS_ADDR":     "",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,
	"CACHE_TTL":      "10m",
	"MEDIA_ROOT":     "./media",
	"LOG_MODE":       LogModeProduction,
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FOODGRAM")

	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "bind env %s", key)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func (c *Config) ListenAddr() string {
	return c.Host + ":" + c.Port
}

func validate(cfg *Config) error {
	if cfg.DBSSLMode != sslModeDisable && cfg.DBSSLMode != sslModeRequire {
		return errors.New(fmt.Sprintf("DB SSL mode is invalid: %s", cfg.DBSSLMode))
	}
	if cfg.LogMode != LogModeProduction && cfg.LogMode != LogModeDevelopment {
		return errors.New(fmt.Sprintf("log mode is invalid: %s", cfg.LogMode))
	}
	if cfg.CacheTTL <= 0 {
		return errors.New(fmt.Sprintf("cache TTL must be positive: %s", cfg.CacheTTL))
	}
	return nil
}
