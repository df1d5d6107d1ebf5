package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/kestrelworks/skybridge/config"
	"github.com/kestrelworks/skybridge/types"
)

// HTTP posts JSON-RPC requests to a remote MCP server's /rpc endpoint.
// Each request carries its own envelope, so no connection state is held
// beyond the client's keep-alive pool.
type HTTP struct {
	name   string
	base   string
	client *http.Client
	logger zerolog.Logger

	mu     sync.Mutex
	nextID int64
}

// NewHTTP builds the adapter and runs the initialize handshake against
// the remote server so that unreachable endpoints fail at startup.
func NewHTTP(cfg config.ServerConfig, logger zerolog.Logger) (*HTTP, error) {
	timeout := DefaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	h := &HTTP{
		name:   cfg.Name,
		base:   strings.TrimRight(cfg.URL, "/"),
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("adapter", "http").Str("server", cfg.Name).Logger(),
		nextID: 1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := h.initialize(ctx); err != nil {
		h.Close()
		return nil, fmt.Errorf("initialize handshake with %s failed: %w", cfg.Name, err)
	}
	return h, nil
}

func (h *HTTP) Name() string {
	return h.name
}

func (h *HTTP) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.mu.Unlock()

	rpcReq, err := NewRequest(id, method, params)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base+"/rpc", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", h.base, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, fmt.Errorf("server returned status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

func (h *HTTP) initialize(ctx context.Context) error {
	raw, err := h.call(ctx, MethodInitialize, defaultInitializeParams())
	if err != nil {
		return err
	}

	var result InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("failed to decode initialize result: %w", err)
	}

	h.logger.Debug().
		Str("server_name", result.ServerInfo.Name).
		Str("server_version", result.ServerInfo.Version).
		Msg("initialize handshake complete")
	return nil
}

func (h *HTTP) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	raw, err := h.call(ctx, MethodListTools, map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	var result ListToolsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode tool list: %w", err)
	}

	tools := make([]mcp.Tool, 0, len(result.Tools))
	for _, spec := range result.Tools {
		tools = append(tools, spec.Tool())
	}
	return tools, nil
}

func (h *HTTP) Invoke(ctx context.Context, name string, args map[string]interface{}) types.Result {
	raw, err := h.call(ctx, MethodCallTool, CallParams{Name: name, Arguments: args})
	if err != nil {
		return types.Result{Tool: name, Err: err.Error()}
	}

	var result CallResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return types.Result{Tool: name, Err: fmt.Sprintf("failed to decode tool result: %v", err)}
	}

	text := result.Text()
	if result.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return types.Result{Tool: name, Err: text}
	}
	return types.Result{Tool: name, OK: true, Output: text}
}

func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
