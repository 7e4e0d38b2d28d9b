package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/daybreakhq/daybreak/internal/llm/driver/openai"
)

func TestNewDefaultsToOpenAI(t *testing.T) {
	drv, err := New(Config{APIKey: "k", Timeout: 5 * time.Second})
	require.NoError(t, err)
	require.Equal(t, "openai", drv.Name())

	client, ok := drv.(*openai.Client)
	require.True(t, ok)
	require.Equal(t, 5*time.Second, client.Timeout)
}

func TestNewPassesBaseURL(t *testing.T) {
	drv, err := New(Config{Provider: "OpenAI", BaseURL: "https://example.test/v1", APIKey: "k"})
	require.NoError(t, err)

	client, ok := drv.(*openai.Client)
	require.True(t, ok)
	require.Equal(t, "https://example.test/v1", client.BaseURL)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "carrier-pigeon"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "carrier-pigeon")
}
