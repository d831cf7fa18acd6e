// Package config loads relbot settings from defaults, an optional YAML file,
// a .env file, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSecretKey is the placeholder signing key. It is rejected in
// production.
const DefaultSecretKey = "default_secret_key"

// Session backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Sheets  SheetsConfig  `yaml:"sheets"`
	Dataset DatasetConfig `yaml:"dataset"`
	Session SessionConfig `yaml:"session"`
	Redis   RedisConfig   `yaml:"redis"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Env            string `yaml:"env"`
	MaxConnections int    `yaml:"max_connections"`
}

type OpenAIConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	MaxTokens         int           `yaml:"max_tokens"`
	Temperature       float64       `yaml:"temperature"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

type SheetsConfig struct {
	ScriptURL string        `yaml:"script_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

type DatasetConfig struct {
	CSVFile string `yaml:"csv_file"`
}

type SessionConfig struct {
	Backend   string        `yaml:"backend"`
	TTL       time.Duration `yaml:"ttl"`
	SecretKey string        `yaml:"secret_key"`
	// CookieSecure marks the session cookie HTTPS-only. Leave it off when
	// serving plain HTTP or the cookie never comes back.
	CookieSecure bool `yaml:"cookie_secure"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console; empty picks by environment
}

// Default returns the built-in configuration, before any file or
// environment overrides.
func Default() Config {
	return defaults()
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
			Env:  "development",
		},
		OpenAI: OpenAIConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-3.5-turbo",
			MaxTokens:   600,
			Temperature: 0.3,
			Timeout:     60 * time.Second,
		},
		Sheets: SheetsConfig{
			Timeout: 30 * time.Second,
		},
		Dataset: DatasetConfig{
			CSVFile: "RelativityOne Release Notes - RelativityOne.csv",
		},
		Session: SessionConfig{
			Backend:   BackendMemory,
			TTL:       24 * time.Hour,
			SecretKey: DefaultSecretKey,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir + "/relbot"
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.local/share/relbot"
	}
	return ".relbot"
}

// Load builds the configuration. A .env file in the working directory is
// read first without overriding variables already set. CONFIG_FILE, when
// set, names a YAML file applied over the defaults. Environment variables
// win over both.
func Load() (Config, error) {
	_ = godotenv.Load()
	return loadFromPath(os.Getenv("CONFIG_FILE"))
}

func loadFromPath(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Debug reports whether the server runs outside production.
func (c Config) Debug() bool {
	return !strings.EqualFold(c.Server.Env, "production")
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks settings the server cannot run without.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Server.Port))
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, errors.New("max connections must not be negative"))
	}
	if c.OpenAI.Timeout <= 0 {
		errs = append(errs, errors.New("openai timeout must be positive"))
	}
	if c.OpenAI.MaxTokens <= 0 {
		errs = append(errs, errors.New("openai max tokens must be positive"))
	}
	if c.OpenAI.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("openai requests per minute must not be negative"))
	}
	if c.Sheets.Timeout <= 0 {
		errs = append(errs, errors.New("sheets timeout must be positive"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}

	switch c.Session.Backend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis session backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.Session.Backend))
	}

	if !c.Debug() && (c.Session.SecretKey == "" || c.Session.SecretKey == DefaultSecretKey) {
		errs = append(errs, errors.New("SECRET_KEY must be set in production"))
	}

	return errors.Join(errs...)
}
