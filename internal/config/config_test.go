package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// clearEnv blanks every variable the loader reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range envSpecs {
		t.Setenv(s.env, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadFromPath("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.True(t, cfg.Debug())
	assert.False(t, cfg.Session.CookieSecure, "plain HTTP deployments must get their session cookie back")
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
	assert.Equal(t, 600, cfg.OpenAI.MaxTokens)
	assert.InDelta(t, 0.3, cfg.OpenAI.Temperature, 1e-9)
	assert.Equal(t, 60*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Sheets.Timeout)
	assert.Equal(t, "RelativityOne Release Notes - RelativityOne.csv", cfg.Dataset.CSVFile)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, DefaultSecretKey, cfg.Session.SecretKey)
	assert.Equal(t, defaults(), Default())
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
}

func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("OPENAI_TEMPERATURE", "0.7")
	t.Setenv("OPENAI_TIMEOUT", "5s")
	t.Setenv("SHEETS_TIMEOUT", "12")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("GOOGLE_SCRIPT_URL", "https://script.example/exec")

	cfg, err := loadFromPath("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, 12*time.Second, cfg.Sheets.Timeout)
	assert.Equal(t, BackendRedis, cfg.Session.Backend)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "https://script.example/exec", cfg.Sheets.ScriptURL)
}

func TestEnvOverride_AppEnvWinsOverFlaskEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLASK_ENV", "development")

	cfg, err := loadFromPath("")
	require.NoError(t, err)
	assert.True(t, cfg.Debug())

	t.Setenv("APP_ENV", "production")
	cfg, err = loadFromPath("")
	require.NoError(t, err)
	assert.False(t, cfg.Debug())
}

func TestEnvOverride_CookieSecure(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	cfg, err := loadFromPath("")
	require.NoError(t, err)
	assert.False(t, cfg.Session.CookieSecure, "production alone does not force Secure cookies")

	t.Setenv("SESSION_COOKIE_SECURE", "true")
	cfg, err = loadFromPath("")
	require.NoError(t, err)
	assert.True(t, cfg.Session.CookieSecure)

	t.Setenv("SESSION_COOKIE_SECURE", "sometimes")
	_, err = loadFromPath("")
	require.Error(t, err)
}

func TestEnvOverride_InvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-number")

	_, err := loadFromPath("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestYAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
server:
  port: 7000
  env: development
openai:
  model: gpt-4o-mini
  timeout: 15s
session:
  backend: sqlite
  ttl: 2h
`)

	cfg, err := loadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.True(t, cfg.Debug())
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 15*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, BackendSQLite, cfg.Session.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	// Untouched keys keep their defaults.
	assert.Equal(t, 600, cfg.OpenAI.MaxTokens)
}

func TestYAMLFile_EnvWins(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "server:\n  port: 7000\n")
	t.Setenv("PORT", "7100")

	cfg, err := loadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Server.Port)
}

func TestYAMLFile_Errors(t *testing.T) {
	clearEnv(t)

	_, err := loadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = loadFromPath(writeTempConfig(t, "server: [unclosed"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := defaults()
		cfg.Session.SecretKey = "s3cret"
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "port"},
		{"openai timeout", func(c *Config) { c.OpenAI.Timeout = 0 }, "openai timeout"},
		{"sheets timeout", func(c *Config) { c.Sheets.Timeout = -time.Second }, "sheets timeout"},
		{"session ttl", func(c *Config) { c.Session.TTL = 0 }, "ttl"},
		{"unknown backend", func(c *Config) { c.Session.Backend = "memcached" }, "memcached"},
		{"redis without addr", func(c *Config) { c.Session.Backend = BackendRedis; c.Redis.Addr = "" }, "REDIS_ADDR"},
		{"default secret in production", func(c *Config) { c.Server.Env = "production"; c.Session.SecretKey = DefaultSecretKey }, "SECRET_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_DefaultSecretAllowedInDevelopment(t *testing.T) {
	cfg := defaults()
	cfg.Server.Env = "development"
	require.NoError(t, cfg.Validate())
}
