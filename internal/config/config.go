package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. CLASSROOM_DB_PATH.
const envPrefix = "CLASSROOM"

// Config holds the application configuration loaded from configs/config.yml and env.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Session SessionConfig `mapstructure:"session"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type SessionConfig struct {
	// Store is "sqlite" (default) or "redis".
	Store         string        `mapstructure:"store"`
	Lifetime      time.Duration `mapstructure:"lifetime"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	SecureCookie  bool          `mapstructure:"secure_cookie"`
}

type AuthConfig struct {
	SigningKey    string        `mapstructure:"signing_key"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	LoginAttempts int           `mapstructure:"login_attempts"`
	LoginWindow   time.Duration `mapstructure:"login_window"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

// SetDefaults registers a default for every key so env overrides work without a file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("db.path", "app.db")

	v.SetDefault("session.store", "sqlite")
	v.SetDefault("session.lifetime", 2*time.Hour)
	v.SetDefault("session.sweep_interval", 5*time.Minute)
	v.SetDefault("session.secure_cookie", false)

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.login_attempts", 5)
	v.SetDefault("auth.login_window", time.Minute)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads the config file (when present) and environment into a Config.
// An empty path searches ./configs/config.yml.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.SigningKey == "" {
		return errors.New("auth.signing_key is required (set CLASSROOM_AUTH_SIGNING_KEY)")
	}
	switch c.Session.Store {
	case "sqlite":
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required when session.store is redis")
		}
	default:
		return fmt.Errorf("unknown session.store %q", c.Session.Store)
	}
	if c.Session.Lifetime <= 0 {
		return errors.New("session.lifetime must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return errors.New("session.sweep_interval must be positive")
	}
	if c.Auth.LoginAttempts < 0 {
		return errors.New("auth.login_attempts must not be negative")
	}
	return nil
}
