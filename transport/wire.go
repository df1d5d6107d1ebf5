package transport

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// JSON-RPC method names shared by the stdio and HTTP adapters and the
// HTTP server mode.
const (
	MethodInitialize = "initialize"
	MethodListTools  = "tools/list"
	MethodCallTool   = "tools/call"

	// ProtocolVersion is the protocol revision both sides advertise
	// during the initialize handshake
	ProtocolVersion = "1.0.0"

	clientName    = "skybridge"
	clientVersion = "0.2.0"
)

// Request is a JSON-RPC request envelope. Params are pre-marshalled so
// the same envelope serves both clients and servers.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewRequest builds a request envelope, marshalling params if present
func NewRequest(id int64, method string, params interface{}) (Request, error) {
	req := Request{JSONRPC: "2.0", ID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return Request{}, fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = raw
	}
	return req, nil
}

// Response is a JSON-RPC response envelope. Notifications arrive on the
// same channel and are recognized by a non-empty Method.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error member of a JSON-RPC response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// InitializeParams is the params payload of an initialize request
type InitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ClientInfo      PeerInfo               `json:"clientInfo"`
}

// InitializeResult is the result payload of an initialize response
type InitializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      PeerInfo               `json:"serverInfo"`
}

// PeerInfo names one end of the protocol exchange
type PeerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// CallParams is the params payload of a tools/call request
type CallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// ToolSpec is one entry of a tools/list result
type ToolSpec struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	InputSchema mcp.ToolInputSchema `json:"inputSchema"`
}

// Tool converts the wire form into a tool descriptor
func (t ToolSpec) Tool() mcp.Tool {
	return mcp.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.InputSchema,
	}
}

// SpecFor converts a tool descriptor into its wire form
func SpecFor(t mcp.Tool) ToolSpec {
	return ToolSpec{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.InputSchema,
	}
}

// ListToolsResult is the result payload of a tools/list response
type ListToolsResult struct {
	Tools []ToolSpec `json:"tools"`
}

// ContentItem is one content block of a tools/call result
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the result payload of a tools/call response
type CallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// Text joins the textual content blocks of the result
func (r CallResult) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, item := range r.Content {
		if item.Type == "" || item.Type == "text" {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func defaultInitializeParams() InitializeParams {
	return InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities: map[string]interface{}{
			"experimental": map[string]interface{}{},
		},
		ClientInfo: PeerInfo{Name: clientName, Version: clientVersion},
	}
}
