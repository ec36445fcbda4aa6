// Package config loads the seal-preview CLI configuration from
// ~/.seal/seal.yaml with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/seal-preview/pkg/metadata"
	"github.com/Sternrassler/seal-preview/pkg/pagination"
	"gopkg.in/yaml.v3"
)

// Redis holds the snapshot store connection settings.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Log holds logging settings.
type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
	File   string `yaml:"file,omitempty"`
}

// Config is the in-memory representation of seal.yaml.
type Config struct {
	URL             string        `yaml:"url"`
	Token           string        `yaml:"token,omitempty"`
	User            string        `yaml:"user,omitempty"`
	Password        string        `yaml:"password,omitempty"`
	UserAgent       string        `yaml:"user_agent"`
	Timeout         time.Duration `yaml:"timeout"`
	PageLimit       int           `yaml:"page_limit"`
	CollisionPolicy string        `yaml:"collision_policy"`
	ListenAddr      string        `yaml:"listen_addr"`
	Redis           Redis         `yaml:"redis"`
	Log             Log           `yaml:"log"`
}

// Environment variables overriding file values.
const (
	EnvURL       = "SEAL_URL"
	EnvToken     = "SEAL_TOKEN"
	EnvUser      = "SEAL_USER"
	EnvPassword  = "SEAL_PASS"
	EnvPageLimit = "SEAL_PAGE_LIMIT"
	EnvRedisURL  = "REDIS_URL"
	EnvLogLevel  = "SEAL_LOG_LEVEL"
	EnvPort      = "PORT"
)

// SealDir returns the absolute path to ~/.seal/.
func SealDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".seal"), nil
}

// DefaultPath returns the absolute path to ~/.seal/seal.yaml.
func DefaultPath() (string, error) {
	dir, err := SealDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "seal.yaml"), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		UserAgent:       "seal-preview/0.1.0",
		Timeout:         30 * time.Second,
		PageLimit:       pagination.DefaultLimit,
		CollisionPolicy: metadata.CollisionOverwrite.String(),
		ListenAddr:      ":8080",
		Redis: Redis{
			Addr: "localhost:6379",
			TTL:  24 * time.Hour,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads path (DefaultPath when empty) on top of Default and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile is Load without environment overrides. Use it when the config
// is going to be written back with Save, so values that only exist in the
// environment (passwords in particular) stay out of the file.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Save marshals cfg and writes it to path with owner-only permissions,
// since the file may hold a session token.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.URL = getEnv(EnvURL, c.URL)
	c.Token = getEnv(EnvToken, c.Token)
	c.User = getEnv(EnvUser, c.User)
	c.Password = getEnv(EnvPassword, c.Password)
	c.Redis.Addr = getEnv(EnvRedisURL, c.Redis.Addr)
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)

	if port := os.Getenv(EnvPort); port != "" {
		c.ListenAddr = ":" + port
	}

	if v := os.Getenv(EnvPageLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPageLimit, err)
		}
		c.PageLimit = n
	}
	return nil
}

// Validate checks the settings needed to talk to the Seal API.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("seal url is required (set url in config or %s)", EnvURL)
	}
	if err := (pagination.Config{Limit: c.PageLimit}).Validate(); err != nil {
		return err
	}
	if _, ok := metadata.ParseCollisionPolicy(c.CollisionPolicy); !ok {
		return fmt.Errorf("unknown collision_policy %q (want overwrite or reject)", c.CollisionPolicy)
	}
	return nil
}

// Policy returns the parsed collision policy.
func (c *Config) Policy() metadata.CollisionPolicy {
	p, _ := metadata.ParseCollisionPolicy(c.CollisionPolicy)
	return p
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
