package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Persist   PersistConfig   `yaml:"persist"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// StorageConfig selects the blob store holding the state snapshot. Key is
// the name the snapshot is stored under.
type StorageConfig struct {
	Driver   string         `yaml:"driver"`
	Key      string         `yaml:"key"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres DatabaseConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

type SQLiteConfig struct {
	Dir string `yaml:"dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type PersistConfig struct {
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// LogConfig sets the slog level. When File is set, logs also go to a
// rotating file.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// SlogLevel parses Level. Unknown values fall back to info.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Addr returns host:port for the plain HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix LEVELGYM_ and underscore-separated paths:
//
//	LEVELGYM_SERVER_HOST, LEVELGYM_SERVER_PORT, LEVELGYM_AUTH_API_KEY,
//	LEVELGYM_STORAGE_DRIVER, LEVELGYM_STORAGE_KEY, LEVELGYM_SQLITE_DIR,
//	LEVELGYM_DB_HOST, LEVELGYM_DB_PORT, LEVELGYM_DB_NAME,
//	LEVELGYM_DB_USER, LEVELGYM_DB_PASSWORD, LEVELGYM_DB_SSLMODE,
//	LEVELGYM_REDIS_ADDR, LEVELGYM_REDIS_PASSWORD, LEVELGYM_REDIS_DB,
//	LEVELGYM_PERSIST_WRITE_TIMEOUT, LEVELGYM_TAILSCALE_ENABLED,
//	LEVELGYM_LOG_LEVEL, LEVELGYM_LOG_FILE
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("LEVELGYM_SERVER_HOST", &cfg.Server.Host)
	num("LEVELGYM_SERVER_PORT", &cfg.Server.Port)
	str("LEVELGYM_AUTH_API_KEY", &cfg.Auth.APIKey)

	str("LEVELGYM_STORAGE_DRIVER", &cfg.Storage.Driver)
	str("LEVELGYM_STORAGE_KEY", &cfg.Storage.Key)
	str("LEVELGYM_SQLITE_DIR", &cfg.Storage.SQLite.Dir)

	str("LEVELGYM_DB_HOST", &cfg.Storage.Postgres.Host)
	num("LEVELGYM_DB_PORT", &cfg.Storage.Postgres.Port)
	str("LEVELGYM_DB_NAME", &cfg.Storage.Postgres.Name)
	str("LEVELGYM_DB_USER", &cfg.Storage.Postgres.User)
	str("LEVELGYM_DB_PASSWORD", &cfg.Storage.Postgres.Password)
	str("LEVELGYM_DB_SSLMODE", &cfg.Storage.Postgres.SSLMode)

	str("LEVELGYM_REDIS_ADDR", &cfg.Storage.Redis.Addr)
	str("LEVELGYM_REDIS_PASSWORD", &cfg.Storage.Redis.Password)
	num("LEVELGYM_REDIS_DB", &cfg.Storage.Redis.DB)

	if v := os.Getenv("LEVELGYM_PERSIST_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Persist.WriteTimeout = d
		}
	}
	if v := os.Getenv("LEVELGYM_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}

	str("LEVELGYM_LOG_LEVEL", &cfg.Log.Level)
	str("LEVELGYM_LOG_FILE", &cfg.Log.File)
}

func applyDefaults(cfg *Config) {
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.SQLite.Dir == "" {
		cfg.Storage.SQLite.Dir = "./data"
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "levelgym:"
	}
	if cfg.Persist.WriteTimeout == 0 {
		cfg.Persist.WriteTimeout = 5 * time.Second
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "levelgym"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "levelgym"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Persist.WriteTimeout < 0 {
		return fmt.Errorf("persist.write_timeout must be positive")
	}

	switch c.Storage.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		db := c.Storage.Postgres
		if db.Host == "" {
			return fmt.Errorf("storage.postgres.host is required")
		}
		if db.Port == 0 {
			return fmt.Errorf("storage.postgres.port is required")
		}
		if db.Name == "" {
			return fmt.Errorf("storage.postgres.name is required")
		}
		if db.User == "" {
			return fmt.Errorf("storage.postgres.user is required")
		}
	case DriverRedis:
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("storage.redis.addr is required")
		}
	default:
		return fmt.Errorf("storage.driver %q is not one of sqlite, postgres, redis, memory", c.Storage.Driver)
	}
	return nil
}
