// Package driver defines the provider-agnostic completion contract.
package driver

import (
	"context"
	"fmt"
)

// Message roles used in completion requests.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Driver defines the interface for text-generation providers.
type Driver interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g., "openai").
	Name() string
}

// Message is a single chat message. Affirmation prompts are text-only, so
// content is a plain string rather than a block list.
type Message struct {
	Role    string
	Content string
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature *float64
	MaxTokens   *int
}

// Response is a provider-agnostic completion response.
type Response struct {
	Model        string
	Text         string
	FinishReason string
	Usage        *Usage
}

// ProviderError is returned when a provider responds with a non-2xx status.
//
// Drivers should populate RawResponse with the provider response body bytes.
// RawResponse must never include API keys.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RawResponse []byte
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}
