package config

import (
	"fmt"
	"strings"
	"time"
)

// Store backend names shared by the rate limiter and opener history sections.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config represents the complete application configuration.
// Values are layered: defaults, then an optional YAML file discovered via app
// identity, then DAYBREAK_* environment variables and flag binds.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Opener    OpenerConfig    `mapstructure:"opener"`
	Redis     RedisConfig     `mapstructure:"redis"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`

	// PromptsDir overrides the embedded prompt definitions with .md files
	// loaded from disk.
	PromptsDir string `mapstructure:"prompts_dir"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CORSConfig lists browser origins allowed to call the API. Empty disables
// CORS handling entirely.
type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// RateLimitConfig controls the per-client request limiter.
type RateLimitConfig struct {
	// Limit is the number of requests allowed per window per client.
	Limit int `mapstructure:"limit"`

	// Window is the fixed-window length.
	Window time.Duration `mapstructure:"window"`

	// SweepInterval controls background eviction of expired windows in the
	// memory store. Zero disables the sweep.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// Store selects the backend: memory (per-process) or redis (shared).
	Store string `mapstructure:"store"`
}

// OpenerConfig controls opener rotation history.
type OpenerConfig struct {
	// HistoryCap bounds how many recent openers are remembered per client and
	// category.
	HistoryCap int `mapstructure:"history_cap"`

	// HistoryTTL is how long a client's history lives after its first write.
	HistoryTTL time.Duration `mapstructure:"history_ttl"`

	// SweepInterval is how often the memory store evicts expired histories.
	// Zero disables the background sweep. Ignored by the redis store.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// RetryBudget bounds how many draws are attempted before repeating an
	// opener is accepted.
	RetryBudget int `mapstructure:"retry_budget"`

	// Store selects the backend: memory (per-process) or redis (shared).
	Store string `mapstructure:"store"`
}

// RedisConfig contains connection settings for the optional Redis backends.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LLMConfig contains completion provider settings.
type LLMConfig struct {
	// Provider selects the driver. Currently "openai"; compatible providers
	// are reached by overriding BaseURL.
	Provider string `mapstructure:"provider"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `mapstructure:"base_url"`

	// APIKey authenticates against the provider.
	APIKey string `mapstructure:"api_key"`

	// Model is the completion model identifier sent with every request.
	Model string `mapstructure:"model"`

	// Timeout bounds a single completion call.
	Timeout time.Duration `mapstructure:"timeout"`

	// Temperature is the sampling temperature. Zero means provider default.
	Temperature float64 `mapstructure:"temperature"`

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int `mapstructure:"max_tokens"`
}

// LoggingConfig contains logging configuration
// Supports progressive logging profiles:
// - SIMPLE: Console output only, minimal configuration (CLI tools)
// - STRUCTURED: Structured sinks, correlation IDs (API services)
// - ENTERPRISE: Multiple sinks, middleware, throttling, policy enforcement (production)
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED, ENTERPRISE
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	// Metrics are also proxied at the main HTTP port under /metrics
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}

// Validate reports the first configuration problem found. It covers the
// structural checks the schema layer would otherwise perform.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("ratelimit.limit must be positive, got %d", c.RateLimit.Limit)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit.window must be positive, got %s", c.RateLimit.Window)
	}
	if err := validateStore("ratelimit.store", c.RateLimit.Store); err != nil {
		return err
	}

	if c.Opener.HistoryCap < 0 {
		return fmt.Errorf("opener.history_cap must not be negative, got %d", c.Opener.HistoryCap)
	}
	if c.Opener.HistoryTTL <= 0 {
		return fmt.Errorf("opener.history_ttl must be positive, got %s", c.Opener.HistoryTTL)
	}
	if c.Opener.RetryBudget < 0 {
		return fmt.Errorf("opener.retry_budget must not be negative, got %d", c.Opener.RetryBudget)
	}
	if err := validateStore("opener.store", c.Opener.Store); err != nil {
		return err
	}

	if (c.RateLimit.Store == StoreRedis || c.Opener.Store == StoreRedis) && strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("redis.addr is required when a redis store is selected")
	}

	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout must not be negative, got %s", c.LLM.Timeout)
	}

	return nil
}

func validateStore(field, value string) error {
	switch value {
	case StoreMemory, StoreRedis:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", field, StoreMemory, StoreRedis, value)
	}
}
