package mcpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kestrelworks/skybridge/transport"
)

// Handler returns the HTTP surface of the server: the JSON-RPC
// endpoint plus health and info pages
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleInfo)
	return mux
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req transport.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, 0, -32700, "parse error")
		return
	}

	s.logger.Debug().Str("method", req.Method).Int64("id", req.ID).Msg("rpc request")

	switch req.Method {
	case transport.MethodInitialize:
		s.writeResult(w, req.ID, transport.InitializeResult{
			ProtocolVersion: transport.ProtocolVersion,
			Capabilities: map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			ServerInfo: transport.PeerInfo{Name: serverName, Version: serverVersion},
		})

	case transport.MethodListTools:
		specs := make([]transport.ToolSpec, 0, len(s.defs))
		for _, def := range s.defs {
			specs = append(specs, transport.SpecFor(def.tool))
		}
		s.writeResult(w, req.ID, transport.ListToolsResult{Tools: specs})

	case transport.MethodCallTool:
		var params transport.CallParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				s.writeError(w, req.ID, -32602, "invalid params")
				return
			}
		}
		s.callTool(w, req.ID, params)

	default:
		s.writeError(w, req.ID, -32601, fmt.Sprintf("method %s not found", req.Method))
	}
}

// callTool runs one tool over the HTTP surface. Handler errors become
// isError results so the caller always gets a tools/call response for
// a known tool.
func (s *Server) callTool(w http.ResponseWriter, id int64, params transport.CallParams) {
	for _, def := range s.defs {
		if def.tool.Name != params.Name {
			continue
		}

		result, err := def.handler(params.Arguments)
		if err != nil {
			s.writeResult(w, id, transport.CallResult{
				Content: []transport.ContentItem{{Type: "text", Text: err.Error()}},
				IsError: true,
			})
			return
		}

		s.writeResult(w, id, toCallResult(result))
		return
	}

	s.writeError(w, id, -32602, fmt.Sprintf("unknown tool: %s", params.Name))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "weather-mcp-server",
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	tools := make([]string, 0, len(s.defs))
	for _, def := range s.defs {
		tools = append(tools, def.tool.Name)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"name":        "Weather MCP Server",
		"version":     serverVersion,
		"description": "MCP server providing weather forecasts and alerts",
		"tools":       tools,
		"endpoints": map[string]string{
			"rpc":    "/rpc",
			"health": "/health",
		},
	})
}

func (s *Server) writeResult(w http.ResponseWriter, id int64, result interface{}) {
	raw, err := json.Marshal(result)
	if err != nil {
		s.writeError(w, id, -32603, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transport.Response{JSONRPC: "2.0", ID: &id, Result: raw})
}

func (s *Server) writeError(w http.ResponseWriter, id int64, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transport.Response{
		JSONRPC: "2.0",
		ID:      &id,
		Error:   &transport.RPCError{Code: code, Message: message},
	})
}

func toCallResult(res *mcp.CallToolResult) transport.CallResult {
	var out transport.CallResult
	for _, item := range res.Content {
		if tc, ok := item.(mcp.TextContent); ok {
			out.Content = append(out.Content, transport.ContentItem{Type: "text", Text: tc.Text})
		}
	}
	return out
}
