// Package agent runs the conversation loop: it sends the transcript to
// the chat backend, executes the tool calls the model requests, feeds
// the results back and repeats until the model answers in plain text.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/kestrelworks/skybridge/chat"
	"github.com/kestrelworks/skybridge/config"
	"github.com/kestrelworks/skybridge/conversation"
	"github.com/kestrelworks/skybridge/registry"
	"github.com/kestrelworks/skybridge/transport"
	"github.com/kestrelworks/skybridge/types"
)

// DefaultMaxToolCalls bounds the number of tool calls the model may
// request within a single user turn before the turn is abandoned.
const DefaultMaxToolCalls = 8

var exitCommands = []string{"exit", "quit", "bye"}

// IsExitCommand reports whether the input asks to end an interactive
// session. Matching is case-insensitive.
func IsExitCommand(input string) bool {
	trimmed := strings.TrimSpace(input)
	for _, cmd := range exitCommands {
		if strings.EqualFold(trimmed, cmd) {
			return true
		}
	}
	return false
}

// route binds a presented tool name to the adapter serving it and the
// name the tool has on that adapter
type route struct {
	adapter transport.Adapter
	tool    string
}

// Session owns one conversation: its transcript, its chat backend and
// the adapters serving its tools. Respond calls are serialized, so a
// session can be shared across goroutines.
type Session struct {
	id           string
	chat         chat.Client
	log          *conversation.Log
	adapters     []transport.Adapter
	routes       map[string]route
	tools        []mcp.Tool
	validator    *registry.Validator
	maxToolCalls int
	logger       zerolog.Logger

	mu sync.Mutex
}

// New connects every configured MCP server, wraps the registry as the
// local adapter and assembles a session over all of them. A server that
// cannot be reached fails the whole call; adapters started before the
// failure are closed.
func New(cfg *config.Config, reg *registry.Registry, client chat.Client, logger zerolog.Logger) (*Session, error) {
	adapters := []transport.Adapter{transport.NewLocal(reg, logger)}

	for _, sc := range cfg.Servers {
		var (
			adapter transport.Adapter
			err     error
		)

		switch sc.Transport {
		case "stdio":
			adapter, err = transport.DialStdio(sc, logger)
		case "http":
			adapter, err = transport.NewHTTP(sc, logger)
		default:
			err = fmt.Errorf("unknown transport %q", sc.Transport)
		}

		if err != nil {
			closeAdapters(adapters)
			return nil, &types.SessionError{
				Op:      "connect",
				Message: fmt.Sprintf("failed to connect to MCP server %s", sc.Name),
				Err:     err,
			}
		}
		adapters = append(adapters, adapter)
	}

	return NewWithAdapters(cfg, client, logger, adapters...)
}

// NewWithAdapters assembles a session over already-connected adapters.
// Tool discovery runs once here; the presented tool list is fixed for
// the session's lifetime. The session takes ownership of the adapters
// and closes them on construction failure. The chat client stays with
// the caller until construction succeeds.
func NewWithAdapters(cfg *config.Config, client chat.Client, logger zerolog.Logger, adapters ...transport.Adapter) (*Session, error) {
	s := &Session{
		id:           uuid.NewString(),
		chat:         client,
		log:          conversation.NewLog(),
		adapters:     adapters,
		routes:       make(map[string]route),
		maxToolCalls: cfg.Agent.MaxToolCalls,
		logger:       logger.With().Str("component", "agent").Logger(),
	}
	if s.maxToolCalls <= 0 {
		s.maxToolCalls = DefaultMaxToolCalls
	}

	ctx, cancel := context.WithTimeout(context.Background(), transport.DefaultTimeout)
	defer cancel()

	for _, adapter := range adapters {
		tools, err := adapter.ListTools(ctx)
		if err != nil {
			closeAdapters(adapters)
			return nil, &types.SessionError{
				Op:      "discover",
				Message: fmt.Sprintf("failed to list tools from %s", adapter.Name()),
				Err:     err,
			}
		}

		for _, tool := range tools {
			presented := tool
			if adapter.Name() != transport.LocalName {
				presented.Name = sanitizeToolName(adapter.Name() + "_" + tool.Name)
			}

			if _, exists := s.routes[presented.Name]; exists {
				closeAdapters(adapters)
				return nil, &types.SessionError{
					Op:      "discover",
					Message: fmt.Sprintf("duplicate tool name %s", presented.Name),
				}
			}

			s.routes[presented.Name] = route{adapter: adapter, tool: tool.Name}
			s.tools = append(s.tools, presented)
		}
	}

	s.validator = registry.NewValidator(s.tools)

	if cfg.Chat.SystemPrompt != "" {
		s.log.Append(conversation.System(cfg.Chat.SystemPrompt))
	}

	s.logger.Debug().
		Str("session_id", s.id).
		Int("tools", len(s.tools)).
		Int("adapters", len(adapters)).
		Msg("session ready")

	return s, nil
}

// ID returns the session's identifier
func (s *Session) ID() string {
	return s.id
}

// Tools returns the tool list as presented to the model
func (s *Session) Tools() []mcp.Tool {
	out := make([]mcp.Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

// History returns a snapshot of the conversation so far
func (s *Session) History() []conversation.Turn {
	return s.log.Snapshot()
}

// Respond runs one user turn to completion: record the input, let the
// model reason, execute requested tools one at a time and feed each
// result back before the next inference, until the model produces a
// plain text answer.
//
// Blank input is rejected with types.ErrEmptyMessage before anything is
// recorded. A model requesting more tool calls than the configured
// budget aborts the turn with types.ErrToolBudget. Both leave the
// session usable for the next turn.
func (s *Session) Respond(ctx context.Context, input string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("recovered from panic during respond")
			reply = ""
			err = &types.SessionError{Op: "respond", Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", types.ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Append(conversation.User(trimmed))

	calls := 0
	for {
		completion, err := s.chat.Complete(ctx, chat.Request{Turns: s.log.Snapshot(), Tools: s.tools})
		if err != nil {
			return "", err
		}

		if len(completion.ToolCalls) == 0 {
			s.log.Append(conversation.Assistant(completion.Content))
			return completion.Content, nil
		}

		s.log.Append(conversation.Assistant(completion.Content, completion.ToolCalls...))

		for _, call := range completion.ToolCalls {
			if calls >= s.maxToolCalls {
				return "", fmt.Errorf("%w: %d tool calls in a single turn", types.ErrToolBudget, s.maxToolCalls)
			}
			calls++

			result := s.invoke(ctx, call)

			if ctx.Err() != nil {
				return "", ctx.Err()
			}

			s.log.Append(conversation.ToolResult(call.ID, result))
		}
	}
}

// invoke validates one tool call and runs it on the adapter that serves
// it. Validation failures, including requests for tools that do not
// exist, become failed results without anything being executed, so the
// model sees its mistake on the next inference.
func (s *Session) invoke(ctx context.Context, call types.ToolCall) types.Result {
	name := call.Function.Name

	if err := s.validator.ValidateCall(call); err != nil {
		s.logger.Warn().Str("tool", name).Err(err).Msg("rejected tool call")
		return types.Result{Tool: name, Err: err.Error()}
	}

	rt, ok := s.routes[name]
	if !ok {
		return types.Result{Tool: name, Err: "unknown tool: " + name}
	}

	s.logger.Debug().Str("tool", name).Str("adapter", rt.adapter.Name()).Msg("executing tool")

	result := rt.adapter.Invoke(ctx, rt.tool, call.Function.Arguments)
	result.Tool = name

	if result.OK {
		s.logger.Debug().Str("tool", name).Msg("tool execution succeeded")
	} else {
		s.logger.Warn().Str("tool", name).Str("error", result.Err).Msg("tool execution failed")
	}
	return result
}

// Close releases the chat backend and every adapter. Safe to call more
// than once; errors are collected rather than stopping at the first.
func (s *Session) Close() error {
	var errs []error

	if err := s.chat.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close chat client: %w", err))
	}
	for _, adapter := range s.adapters {
		if err := adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close adapter %s: %w", adapter.Name(), err))
		}
	}

	if len(errs) == 1 {
		return errs[0]
	}
	if len(errs) > 1 {
		return fmt.Errorf("multiple close errors: %v", errs)
	}
	return nil
}

func closeAdapters(adapters []transport.Adapter) {
	for _, adapter := range adapters {
		adapter.Close()
	}
}

// sanitizeToolName rewrites characters the chat backends reject in
// function names
func sanitizeToolName(name string) string {
	replacer := strings.NewReplacer("-", "_", " ", "_", ".", "_")
	return replacer.Replace(name)
}
