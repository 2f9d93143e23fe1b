package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// DefaultFile is read when present in the working directory.
const DefaultFile = "podium.yaml"

// Config is the server configuration.
type Config struct {
	Port     int         `yaml:"port"`
	DataDir  string      `yaml:"data_dir"`
	Backend  string      `yaml:"backend"`
	Seed     bool        `yaml:"seed"`
	LogLevel string      `yaml:"log_level"`
	Redis    RedisConfig `yaml:"redis"`
	// PhotosDir holds VIP photos named <vip id>.png|.jpg|.jpeg.
	PhotosDir string `yaml:"photos_dir"`
}

// RedisConfig configures the redis document backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:      8080,
		DataDir:   "data",
		Backend:   BackendFile,
		Seed:      true,
		LogLevel:  "info",
		PhotosDir: "assets/photos",
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
			DB:   8,
		},
	}
}

// Load builds the configuration from defaults, the yaml file (if any),
// a .env file (if any) and PODIUM_* environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("PODIUM_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid PODIUM_PORT env variable")
		}
		c.Port = port
	}
	if v := os.Getenv("PODIUM_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PODIUM_BACKEND"); v != "" {
		c.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("PODIUM_SEED"); v != "" {
		c.Seed = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("PODIUM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PODIUM_PHOTOS_DIR"); v != "" {
		c.PhotosDir = v
	}
	if v := os.Getenv("PODIUM_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("PODIUM_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("PODIUM_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid PODIUM_REDIS_DB env variable")
		}
		c.Redis.DB = db
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Backend {
	case BackendFile:
		if c.DataDir == "" {
			return errors.New("data_dir is required for the file backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendFile, BackendRedis)
	}
	return nil
}
