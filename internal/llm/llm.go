// Package llm constructs the text-generation driver from configuration.
package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/daybreakhq/daybreak/internal/llm/driver"
	"github.com/daybreakhq/daybreak/internal/llm/driver/openai"
)

// Config selects and configures a provider driver.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// New returns the driver for the configured provider. An empty provider
// defaults to openai; OpenAI-compatible providers are reached by setting
// BaseURL.
func New(cfg Config) (driver.Driver, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "openai":
		client := openai.NewClient(cfg.BaseURL, cfg.APIKey)
		client.Timeout = cfg.Timeout
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
