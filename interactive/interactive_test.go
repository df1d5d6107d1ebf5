package interactive

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelworks/skybridge/agent"
	"github.com/kestrelworks/skybridge/chat"
	"github.com/kestrelworks/skybridge/config"
	"github.com/kestrelworks/skybridge/registry"
	"github.com/kestrelworks/skybridge/transport"
	"github.com/kestrelworks/skybridge/types"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

type scriptedChat struct {
	mu          sync.Mutex
	completions []types.Completion
	err         error
}

func (c *scriptedChat) Complete(ctx context.Context, req chat.Request) (types.Completion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return types.Completion{}, c.err
	}
	if len(c.completions) == 0 {
		return types.Completion{}, nil
	}
	next := c.completions[0]
	c.completions = c.completions[1:]
	return next, nil
}

func (c *scriptedChat) Close() error { return nil }

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Servers = nil
	return cfg
}

func newSession(t *testing.T, cfg *config.Config, client chat.Client) *agent.Session {
	t.Helper()

	s, err := agent.NewWithAdapters(cfg, client, testLogger(),
		transport.NewLocal(registry.New(), testLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func runWithInput(t *testing.T, cfg *config.Config, client chat.Client, input string) string {
	t.Helper()

	session := newSession(t, cfg, client)

	var out bytes.Buffer
	i := NewWithIO(cfg, session, strings.NewReader(input), &out, testLogger())
	require.NoError(t, i.Run(context.Background()))
	return out.String()
}

func TestRunExitsOnExitCommand(t *testing.T) {
	out := runWithInput(t, testConfig(), &scriptedChat{}, "bye\n")

	assert.Contains(t, out, "=== Skybridge Chat Ready ===")
	assert.Contains(t, out, "Enter your message: ")
	assert.Contains(t, out, "Goodbye!")
}

func TestRunExitsOnEndOfInput(t *testing.T) {
	out := runWithInput(t, testConfig(), &scriptedChat{}, "")
	assert.Contains(t, out, "Goodbye!")
}

func TestRunPrintsReplies(t *testing.T) {
	client := &scriptedChat{completions: []types.Completion{{Content: "Hello there!"}}}

	out := runWithInput(t, testConfig(), client, "hi\nexit\n")
	assert.Contains(t, out, "Hello there!")
	assert.NotContains(t, out, "Error:")
}

func TestRunPrintsTurnErrors(t *testing.T) {
	client := &scriptedChat{err: &types.ChatError{Op: "request", Message: "endpoint unreachable"}}

	out := runWithInput(t, testConfig(), client, "hi\nexit\n")
	assert.Contains(t, out, "Error:")
	assert.Contains(t, out, "endpoint unreachable")
	assert.Contains(t, out, "Goodbye!", "the loop should survive a failed turn")
}

func TestRunSkipsBlankLines(t *testing.T) {
	out := runWithInput(t, testConfig(), &scriptedChat{}, "\n   \nexit\n")
	assert.NotContains(t, out, "Error:")
	assert.Equal(t, 3, strings.Count(out, "Enter your message: "))
}

func TestRunReportsEmptyReplies(t *testing.T) {
	client := &scriptedChat{completions: []types.Completion{{Content: ""}}}

	out := runWithInput(t, testConfig(), client, "hi\nexit\n")
	assert.Contains(t, out, "No response received.")
}

func TestBannerShowsProviderDetails(t *testing.T) {
	cfg := testConfig()
	out := runWithInput(t, cfg, &scriptedChat{}, "exit\n")

	assert.Contains(t, out, "Provider: ollama")
	assert.Contains(t, out, "Model: "+cfg.Chat.Model)
	assert.Contains(t, out, "Endpoint: "+cfg.Chat.Endpoint)
	assert.Contains(t, out, "Tools: 0 available")
}

func TestBannerShowsAzureDeployment(t *testing.T) {
	cfg := testConfig()
	cfg.Chat.Provider = "azure"
	cfg.Azure.Endpoint = "https://example.openai.azure.com"
	cfg.Azure.APIKey = "test-key"
	cfg.Azure.Deployment = "gpt-4o"

	out := runWithInput(t, cfg, &scriptedChat{}, "exit\n")
	assert.Contains(t, out, "Provider: azure")
	assert.Contains(t, out, "Deployment: gpt-4o")
	assert.NotContains(t, out, "api_key")
}
