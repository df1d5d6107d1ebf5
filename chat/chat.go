// Package chat provides clients for the chat completion backends the
// assistant can talk to. Both backends accept the full conversation and
// the advertised tool list on every call and return a single completion,
// which may carry tool call requests instead of (or alongside) text.
package chat

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/kestrelworks/skybridge/config"
	"github.com/kestrelworks/skybridge/conversation"
	"github.com/kestrelworks/skybridge/types"
)

// Request carries everything a backend needs for one completion
type Request struct {
	Turns []conversation.Turn
	Tools []mcp.Tool
}

// Client is a chat completion backend
type Client interface {
	// Complete runs one inference over the conversation so far. When the
	// model requests tools, the returned completion carries the calls;
	// the caller decides whether and how to execute them.
	Complete(ctx context.Context, req Request) (types.Completion, error)

	Close() error
}

// New selects the backend named by the configuration
func New(cfg *config.Config, logger zerolog.Logger) (Client, error) {
	switch cfg.Chat.Provider {
	case "ollama":
		return NewOllama(cfg, logger), nil
	case "azure":
		return NewAzure(cfg, logger)
	default:
		return nil, &types.ConfigError{
			Field:   "chat.provider",
			Message: fmt.Sprintf("unknown provider %q", cfg.Chat.Provider),
		}
	}
}

// renderResult flattens a tool result into the text fed back to the model
func renderResult(res *types.Result) string {
	if res == nil {
		return ""
	}
	if res.OK {
		return res.Output
	}
	return "Error: " + res.Err
}
