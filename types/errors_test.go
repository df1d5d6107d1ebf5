package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Field: "chat.provider", Message: "unknown provider \"x\""}
	assert.Equal(t, "configuration error in chat.provider: unknown provider \"x\"", err.Error())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	wrapped := &ConfigError{Field: "server.port", Message: "invalid", Err: errors.New("not a number")}
	assert.Contains(t, wrapped.Error(), "not a number")
}

func TestMissingConfigErrorListsEveryItem(t *testing.T) {
	err := &MissingConfigError{Items: []string{"azure.endpoint", "azure.api_key", "azure.deployment"}}

	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, "missing required configuration: azure.endpoint, azure.api_key, azure.deployment", err.Error())
}

func TestSessionErrorUnwrap(t *testing.T) {
	bare := &SessionError{Op: "discover", Message: "duplicate tool name"}
	assert.ErrorIs(t, bare, ErrSessionInit)

	inner := errors.New("connection refused")
	wrapped := &SessionError{Op: "connect", Message: "failed to connect", Err: inner}
	assert.ErrorIs(t, wrapped, inner)
	assert.NotErrorIs(t, wrapped, ErrSessionInit)
	assert.Equal(t, "session error during connect: failed to connect: connection refused", wrapped.Error())
}

func TestChatErrorUnwrap(t *testing.T) {
	err := &ChatError{Op: "stream", Message: "failed to decode stream chunk", Err: errors.New("unexpected EOF")}
	assert.ErrorIs(t, err, ErrChatResponse)
	assert.Contains(t, err.Error(), "chat error during stream")
}

func TestToolErrorUnwrap(t *testing.T) {
	err := &ToolError{Tool: "get_time", Message: "executor failed"}
	assert.ErrorIs(t, err, ErrToolExecution)
	assert.Equal(t, "tool error in get_time: executor failed", err.Error())
}

func TestBudgetSentinelWrapping(t *testing.T) {
	err := fmt.Errorf("%w: %d tool calls in a single turn", ErrToolBudget, 8)
	assert.ErrorIs(t, err, ErrToolBudget)
}
