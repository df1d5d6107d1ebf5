package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/kestrelworks/skybridge/config"
	"github.com/kestrelworks/skybridge/conversation"
	"github.com/kestrelworks/skybridge/types"
)

// Ollama talks to a local Ollama instance via its /chat endpoint.
// Responses stream as newline-delimited JSON chunks; the client drains
// the stream and returns the assembled completion.
type Ollama struct {
	endpoint string
	model    string
	client   *http.Client
	logger   zerolog.Logger
}

// NewOllama builds a client for the configured endpoint and model
func NewOllama(cfg *config.Config, logger zerolog.Logger) *Ollama {
	return &Ollama{
		endpoint: strings.TrimRight(cfg.Chat.Endpoint, "/"),
		model:    cfg.Chat.Model,
		client:   &http.Client{Timeout: 120 * time.Second},
		logger:   logger.With().Str("chat", "ollama").Logger(),
	}
}

type ollamaFunction struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type ollamaToolCall struct {
	Function ollamaFunction `json:"function"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolFunction struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Parameters  mcp.ToolInputSchema `json:"parameters"`
}

type ollamaTool struct {
	Type     string             `json:"type"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
}

type ollamaChatChunk struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Complete posts the conversation and drains the response stream into a
// single completion. Ollama does not assign IDs to tool calls, so the
// client mints one per call for the round trip through the tool turn.
func (o *Ollama) Complete(ctx context.Context, req Request) (types.Completion, error) {
	chatReq := ollamaChatRequest{
		Model:    o.model,
		Messages: convertTurns(req.Turns),
		Stream:   true,
		Tools:    convertTools(req.Tools),
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return types.Completion{}, &types.ChatError{Op: "request", Message: "failed to marshal chat request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/chat", bytes.NewReader(body))
	if err != nil {
		return types.Completion{}, &types.ChatError{Op: "request", Message: "failed to create chat request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return types.Completion{}, ctx.Err()
		}
		return types.Completion{}, &types.ChatError{Op: "request", Message: "chat request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.Completion{}, &types.ChatError{
			Op:      "request",
			Message: fmt.Sprintf("chat endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	return o.drain(ctx, resp.Body)
}

// drain consumes stream chunks until the final one, concatenating
// content and collecting tool calls
func (o *Ollama) drain(ctx context.Context, body io.Reader) (types.Completion, error) {
	var completion types.Completion
	var content strings.Builder

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk ollamaChatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return types.Completion{}, &types.ChatError{Op: "stream", Message: "failed to decode stream chunk", Err: err}
		}

		content.WriteString(chunk.Message.Content)

		for _, tc := range chunk.Message.ToolCalls {
			call := types.ToolCall{ID: "call_" + uuid.NewString(), Type: "function"}
			call.Function.Name = tc.Function.Name
			call.Function.Arguments = tc.Function.Arguments
			completion.ToolCalls = append(completion.ToolCalls, call)
		}

		if chunk.Done {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return types.Completion{}, ctx.Err()
		}
		return types.Completion{}, &types.ChatError{Op: "stream", Message: "failed to read stream", Err: err}
	}

	completion.Content = content.String()

	o.logger.Debug().
		Int("content_length", len(completion.Content)).
		Int("tool_calls", len(completion.ToolCalls)).
		Msg("completion received")

	return completion, nil
}

func (o *Ollama) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

// convertTurns maps conversation turns onto Ollama's message schema
func convertTurns(turns []conversation.Turn) []ollamaMessage {
	messages := make([]ollamaMessage, 0, len(turns))
	for _, t := range turns {
		msg := ollamaMessage{Role: string(t.Role), Content: t.Content}

		switch t.Role {
		case conversation.RoleAssistant:
			for _, call := range t.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, ollamaToolCall{
					Function: ollamaFunction{
						Name:      call.Function.Name,
						Arguments: call.Function.Arguments,
					},
				})
			}
		case conversation.RoleTool:
			msg.Content = renderResult(t.Result)
		}

		messages = append(messages, msg)
	}
	return messages
}

func convertTools(tools []mcp.Tool) []ollamaTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]ollamaTool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, ollamaTool{
			Type: "function",
			Function: ollamaToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}
	return out
}
