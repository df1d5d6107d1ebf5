package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelworks/skybridge/config"
	"github.com/kestrelworks/skybridge/types"
)

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.DefaultConfig()

	client, err := New(cfg, testLogger())
	require.NoError(t, err)
	_, ok := client.(*Ollama)
	assert.True(t, ok)
	client.Close()

	cfg.Chat.Provider = "azure"
	cfg.Azure.Endpoint = "https://example.openai.azure.com"
	cfg.Azure.APIKey = "test-key"
	cfg.Azure.Deployment = "gpt-4o"

	client, err = New(cfg, testLogger())
	require.NoError(t, err)
	_, ok = client.(*Azure)
	assert.True(t, ok)
	client.Close()

	cfg.Chat.Provider = "bogus"
	_, err = New(cfg, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestRenderResult(t *testing.T) {
	assert.Equal(t, "", renderResult(nil))
	assert.Equal(t, "sunny", renderResult(&types.Result{OK: true, Output: "sunny"}))
	assert.Equal(t, "Error: no route to server", renderResult(&types.Result{Err: "no route to server"}))
}
