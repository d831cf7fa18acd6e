package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
	kDuration
	kBool
)

type envSpec struct {
	env   string
	typ   keyType
	apply func(cfg *Config, v any)
}

var envSpecs = []envSpec{
	{env: "SECRET_KEY", typ: kString, apply: func(cfg *Config, v any) { cfg.Session.SecretKey = v.(string) }},
	{env: "OPENAI_API_KEY", typ: kString, apply: func(cfg *Config, v any) { cfg.OpenAI.APIKey = v.(string) }},
	{env: "OPENAI_BASE_URL", typ: kString, apply: func(cfg *Config, v any) { cfg.OpenAI.BaseURL = v.(string) }},
	{env: "OPENAI_MODEL", typ: kString, apply: func(cfg *Config, v any) { cfg.OpenAI.Model = v.(string) }},
	{env: "OPENAI_MAX_TOKENS", typ: kInt, apply: func(cfg *Config, v any) { cfg.OpenAI.MaxTokens = v.(int) }},
	{env: "OPENAI_TEMPERATURE", typ: kFloat, apply: func(cfg *Config, v any) { cfg.OpenAI.Temperature = v.(float64) }},
	{env: "OPENAI_TIMEOUT", typ: kDuration, apply: func(cfg *Config, v any) { cfg.OpenAI.Timeout = v.(time.Duration) }},
	{env: "OPENAI_REQUESTS_PER_MINUTE", typ: kInt, apply: func(cfg *Config, v any) { cfg.OpenAI.RequestsPerMinute = v.(int) }},
	{env: "GOOGLE_SCRIPT_URL", typ: kString, apply: func(cfg *Config, v any) { cfg.Sheets.ScriptURL = v.(string) }},
	{env: "SHEETS_TIMEOUT", typ: kDuration, apply: func(cfg *Config, v any) { cfg.Sheets.Timeout = v.(time.Duration) }},
	{env: "CSV_FILE", typ: kString, apply: func(cfg *Config, v any) { cfg.Dataset.CSVFile = v.(string) }},
	{env: "HOST", typ: kString, apply: func(cfg *Config, v any) { cfg.Server.Host = v.(string) }},
	{env: "PORT", typ: kInt, apply: func(cfg *Config, v any) { cfg.Server.Port = v.(int) }},
	// FLASK_ENV is listed before APP_ENV so the latter wins when both are set.
	{env: "FLASK_ENV", typ: kString, apply: func(cfg *Config, v any) { cfg.Server.Env = v.(string) }},
	{env: "APP_ENV", typ: kString, apply: func(cfg *Config, v any) { cfg.Server.Env = v.(string) }},
	{env: "MAX_CONNECTIONS", typ: kInt, apply: func(cfg *Config, v any) { cfg.Server.MaxConnections = v.(int) }},
	{env: "LOG_LEVEL", typ: kString, apply: func(cfg *Config, v any) { cfg.Log.Level = v.(string) }},
	{env: "LOG_FORMAT", typ: kString, apply: func(cfg *Config, v any) { cfg.Log.Format = v.(string) }},
	{env: "SESSION_BACKEND", typ: kString, apply: func(cfg *Config, v any) { cfg.Session.Backend = v.(string) }},
	{env: "SESSION_TTL", typ: kDuration, apply: func(cfg *Config, v any) { cfg.Session.TTL = v.(time.Duration) }},
	{env: "SESSION_COOKIE_SECURE", typ: kBool, apply: func(cfg *Config, v any) { cfg.Session.CookieSecure = v.(bool) }},
	{env: "DATA_DIR", typ: kString, apply: func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) }},
	{env: "REDIS_ADDR", typ: kString, apply: func(cfg *Config, v any) { cfg.Redis.Addr = v.(string) }},
	{env: "REDIS_PASSWORD", typ: kString, apply: func(cfg *Config, v any) { cfg.Redis.Password = v.(string) }},
	{env: "REDIS_DB", typ: kInt, apply: func(cfg *Config, v any) { cfg.Redis.DB = v.(int) }},
}

func applyEnvOverrides(cfg *Config) error {
	for _, s := range envSpecs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			i, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("parsing %s=%q as integer: %w", s.env, raw, err)
			}
			s.apply(cfg, i)
		case kFloat:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("parsing %s=%q as number: %w", s.env, raw, err)
			}
			s.apply(cfg, f)
		case kDuration:
			d, err := parseDuration(raw)
			if err != nil {
				return fmt.Errorf("parsing %s=%q as duration: %w", s.env, raw, err)
			}
			s.apply(cfg, d)
		case kBool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("parsing %s=%q as bool: %w", s.env, raw, err)
			}
			s.apply(cfg, b)
		}
	}
	return nil
}

// parseDuration accepts Go duration strings and bare integers, read as
// seconds.
func parseDuration(raw string) (time.Duration, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(raw)
}
