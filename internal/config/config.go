package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the full server configuration. Values come from the YAML
// file, with environment variables taking precedence for the settings
// that differ between deployments.
type Config struct {
	ListenAddr     string   `yaml:"listen_addr"`
	JWTSecret      string   `yaml:"jwt_secret"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

func defaults() Config {
	return Config{
		ListenAddr:     ":8080",
		AllowedOrigins: []string{"*"},
		Redis: RedisConfig{
			URL:          "redis://localhost:6379/0",
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}

// Load reads the config file at path, merged over defaults and under
// environment overrides. An empty path skips the file and uses only
// defaults and environment.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required (config file or JWT_SECRET)")
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		cfg.AllowedOrigins = origins
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("REDIS_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Redis.PoolSize = n
		}
	}
}

var (
	cfg      *Config
	loadOnce sync.Once
	loadErr  error
)

// Init loads the process-wide configuration exactly once.
func Init(path string) error {
	loadOnce.Do(func() {
		cfg, loadErr = Load(path)
	})
	return loadErr
}

// Get returns the process-wide configuration; nil before Init.
func Get() *Config {
	return cfg
}
