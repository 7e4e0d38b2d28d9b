// Package config provides centralized configuration management for daybreak.
// Values are layered: setDefaults() in the CLI seeds the viper registry, an
// optional YAML file discovered via app identity overrides them, and
// {PREFIX}* environment variables override both. Load snapshots the merged
// view into a typed Config.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fulmenhq/gofulmen/appidentity"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/daybreakhq/daybreak/internal/appid"
)

var (
	// appConfig holds the current application configuration
	appConfig   *Config
	configMu    sync.RWMutex
	appIdentity *appidentity.Identity
)

// EnvVarSpec defines environment variable mappings for config fields
// following the pattern: {PREFIX}{NAME} maps to config path
type EnvVarSpec = gfconfig.EnvVarSpec

// Environment variable types
const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// Load snapshots the merged configuration into a typed Config:
// 1. viper registry state (defaults, optional YAML file, flag binds)
// 2. Environment variable overrides per getEnvSpecs
// 3. Runtime overrides supplied by the caller
//
// This function is safe to call multiple times (e.g., for config reload)
func Load(ctx context.Context, runtimeOverrides ...map[string]any) (*Config, error) {
	// Get app identity if not already loaded
	if appIdentity == nil {
		identity, err := appid.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load app identity: %w", err)
		}
		appIdentity = identity
	}

	merged := viper.AllSettings()

	// Load environment variable overrides
	envOverrides, err := gfconfig.LoadEnvOverrides(getEnvSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	if appIdentity != nil {
		prefix := envPrefix()

		// gofulmen env specs carry no float type, so the sampling temperature
		// is parsed by hand.
		if value := strings.TrimSpace(os.Getenv(prefix + "LLM_TEMPERATURE")); value != "" {
			temperature, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid llm temperature: %w", err)
			}
			llm := ensureMap(envOverrides, "llm")
			llm["temperature"] = temperature
		}
	}

	merged = mergeOverrides(merged, envOverrides)
	for _, overrides := range runtimeOverrides {
		merged = mergeOverrides(merged, overrides)
	}

	// Unmarshal into typed config struct
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(merged); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Store the loaded config
	setConfig(cfg)

	return cfg, nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

func envPrefix() string {
	prefix := "DAYBREAK_"
	if appIdentity != nil && appIdentity.EnvPrefix != "" {
		prefix = appIdentity.EnvPrefix
	}
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return prefix
}

// getEnvSpecs returns environment variable specifications for config mapping
// Maps {PREFIX}{NAME} environment variables to config paths
func getEnvSpecs() []EnvVarSpec {
	prefix := envPrefix()

	return []EnvVarSpec{
		// Server config
		{Name: prefix + "HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: prefix + "PORT", Path: []string{"server", "port"}, Type: EnvInt},
		// Duration fields are parsed as strings and converted by mapstructure decode hook
		{Name: prefix + "READ_TIMEOUT", Path: []string{"server", "read_timeout"}, Type: EnvString},
		{Name: prefix + "WRITE_TIMEOUT", Path: []string{"server", "write_timeout"}, Type: EnvString},
		{Name: prefix + "IDLE_TIMEOUT", Path: []string{"server", "idle_timeout"}, Type: EnvString},
		{Name: prefix + "SHUTDOWN_TIMEOUT", Path: []string{"server", "shutdown_timeout"}, Type: EnvString},

		// CORS config (comma-separated origins, split by decode hook)
		{Name: prefix + "CORS_ORIGINS", Path: []string{"cors", "origins"}, Type: EnvString},

		// Logging config
		{Name: prefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},
		{Name: prefix + "LOG_PROFILE", Path: []string{"logging", "profile"}, Type: EnvString},

		// Rate limit config
		{Name: prefix + "RATELIMIT_LIMIT", Path: []string{"ratelimit", "limit"}, Type: EnvInt},
		{Name: prefix + "RATELIMIT_WINDOW", Path: []string{"ratelimit", "window"}, Type: EnvString},
		{Name: prefix + "RATELIMIT_SWEEP_INTERVAL", Path: []string{"ratelimit", "sweep_interval"}, Type: EnvString},
		{Name: prefix + "RATELIMIT_STORE", Path: []string{"ratelimit", "store"}, Type: EnvString},

		// Opener rotation config
		{Name: prefix + "OPENER_HISTORY_CAP", Path: []string{"opener", "history_cap"}, Type: EnvInt},
		{Name: prefix + "OPENER_HISTORY_TTL", Path: []string{"opener", "history_ttl"}, Type: EnvString},
		{Name: prefix + "OPENER_SWEEP_INTERVAL", Path: []string{"opener", "sweep_interval"}, Type: EnvString},
		{Name: prefix + "OPENER_RETRY_BUDGET", Path: []string{"opener", "retry_budget"}, Type: EnvInt},
		{Name: prefix + "OPENER_STORE", Path: []string{"opener", "store"}, Type: EnvString},

		// Redis config
		{Name: prefix + "REDIS_ADDR", Path: []string{"redis", "addr"}, Type: EnvString},
		{Name: prefix + "REDIS_PASSWORD", Path: []string{"redis", "password"}, Type: EnvString},
		{Name: prefix + "REDIS_DB", Path: []string{"redis", "db"}, Type: EnvInt},

		// LLM provider config
		{Name: prefix + "LLM_PROVIDER", Path: []string{"llm", "provider"}, Type: EnvString},
		{Name: prefix + "LLM_BASE_URL", Path: []string{"llm", "base_url"}, Type: EnvString},
		{Name: prefix + "LLM_API_KEY", Path: []string{"llm", "api_key"}, Type: EnvString},
		{Name: prefix + "LLM_MODEL", Path: []string{"llm", "model"}, Type: EnvString},
		{Name: prefix + "LLM_TIMEOUT", Path: []string{"llm", "timeout"}, Type: EnvString},
		{Name: prefix + "LLM_MAX_TOKENS", Path: []string{"llm", "max_tokens"}, Type: EnvInt},

		// Prompt definitions override
		{Name: prefix + "PROMPTS_DIR", Path: []string{"prompts_dir"}, Type: EnvString},

		// Metrics config
		{Name: prefix + "METRICS_ENABLED", Path: []string{"metrics", "enabled"}, Type: EnvBool},
		{Name: prefix + "METRICS_PORT", Path: []string{"metrics", "port"}, Type: EnvInt},

		// Health config
		{Name: prefix + "HEALTH_ENABLED", Path: []string{"health", "enabled"}, Type: EnvBool},
	}
}

// SetDefaults seeds the viper registry with baseline values. The CLI calls
// this once during startup, before Load; tests call it after viper.Reset.
func SetDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	// Write timeout must outlast the generation deadline.
	viper.SetDefault("server.write_timeout", "150s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "10s")

	// CORS defaults (disabled until origins are configured)
	viper.SetDefault("cors.origins", []string{})

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.profile", "structured")

	// Rate limit defaults
	viper.SetDefault("ratelimit.limit", 10)
	viper.SetDefault("ratelimit.window", "1m")
	viper.SetDefault("ratelimit.sweep_interval", "5m")
	viper.SetDefault("ratelimit.store", StoreMemory)

	// Opener rotation defaults
	viper.SetDefault("opener.history_cap", 20)
	viper.SetDefault("opener.history_ttl", "24h")
	viper.SetDefault("opener.sweep_interval", "1h")
	viper.SetDefault("opener.retry_budget", 12)
	viper.SetDefault("opener.store", StoreMemory)

	// Redis defaults
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// LLM provider defaults
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.base_url", "")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.timeout", "30s")
	viper.SetDefault("llm.temperature", 0.9)
	viper.SetDefault("llm.max_tokens", 300)

	// Prompt definitions (empty means embedded defaults)
	viper.SetDefault("prompts_dir", "")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)

	// Health check defaults
	viper.SetDefault("health.enabled", true)
}

// mergeOverrides deep-merges override values into base, replacing scalars and
// descending into nested maps.
func mergeOverrides(base, overrides map[string]any) map[string]any {
	if base == nil {
		base = map[string]any{}
	}
	for key, value := range overrides {
		if overrideMap, ok := value.(map[string]any); ok {
			if baseMap, ok := base[key].(map[string]any); ok {
				base[key] = mergeOverrides(baseMap, overrideMap)
				continue
			}
		}
		base[key] = value
	}
	return base
}

func ensureMap(parent map[string]any, key string) map[string]any {
	if parent == nil {
		return map[string]any{}
	}
	if existing, ok := parent[key]; ok {
		if typed, ok := existing.(map[string]any); ok {
			return typed
		}
	}
	next := map[string]any{}
	parent[key] = next
	return next
}

// appNameForPaths returns the config name from app identity, falling back to
// "daybreak" if not set.
func appNameForPaths() string {
	if appIdentity != nil && strings.TrimSpace(appIdentity.ConfigName) != "" {
		return appIdentity.ConfigName
	}
	return "daybreak"
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := gfconfig.GetAppConfigDir(appNameForPaths())
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}
