// Package mcpserver implements the weather MCP server that ships with
// the assistant. It exposes the National Weather Service tools over
// stdio for subprocess use and over HTTP for remote deployments.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/kestrelworks/skybridge/weather"
)

const (
	serverName    = "skybridge-weather"
	serverVersion = "0.2.0"
)

type toolDef struct {
	tool    mcp.Tool
	handler func(arguments map[string]interface{}) (*mcp.CallToolResult, error)
}

// Server wires the weather client into both serving modes
type Server struct {
	server  *server.MCPServer
	weather *weather.Client
	defs    []toolDef
	logger  zerolog.Logger
}

// New builds the server around a weather client
func New(client *weather.Client, logger zerolog.Logger) *Server {
	s := &Server{
		weather: client,
		logger:  logger.With().Str("component", "mcpserver").Logger(),
	}

	s.defs = []toolDef{
		{tool: forecastTool(), handler: s.handleForecast},
		{tool: alertsTool(), handler: s.handleAlerts},
	}

	mcps := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)
	for _, def := range s.defs {
		mcps.AddTool(def.tool, def.handler)
	}
	mcps.AddNotificationHandler(s.handleNotification)
	s.server = mcps

	return s
}

// Tools returns the tools the server advertises
func (s *Server) Tools() []mcp.Tool {
	tools := make([]mcp.Tool, 0, len(s.defs))
	for _, def := range s.defs {
		tools = append(tools, def.tool)
	}
	return tools
}

// ServeStdio serves requests on stdin/stdout until the stream closes
func (s *Server) ServeStdio() error {
	s.logger.Info().Msg("serving MCP over stdio")
	if err := server.ServeStdio(s.server); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	s.logger.Info().Msg("MCP server stopped")
	return nil
}

func forecastTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_forecast",
		Description: "Get weather forecast for a location",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"latitude": map[string]interface{}{
					"type":        "number",
					"description": "Latitude of the location",
				},
				"longitude": map[string]interface{}{
					"type":        "number",
					"description": "Longitude of the location",
				},
			},
			Required: []string{"latitude", "longitude"},
		},
	}
}

func alertsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_alerts",
		Description: "Get weather alerts for a US state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"state": map[string]interface{}{
					"type":        "string",
					"description": "Two-letter US state code (e.g. CA, NY)",
				},
			},
			Required: []string{"state"},
		},
	}
}

func (s *Server) handleForecast(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	latitude, ok := arguments["latitude"].(float64)
	if !ok {
		return nil, fmt.Errorf("latitude must be a number")
	}
	longitude, ok := arguments["longitude"].(float64)
	if !ok {
		return nil, fmt.Errorf("longitude must be a number")
	}

	s.logger.Debug().Float64("latitude", latitude).Float64("longitude", longitude).Msg("forecast requested")

	return textResult(s.weather.Forecast(context.Background(), latitude, longitude)), nil
}

func (s *Server) handleAlerts(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	state, ok := arguments["state"].(string)
	if !ok || state == "" {
		return nil, fmt.Errorf("state must be a two-letter US state code")
	}

	s.logger.Debug().Str("state", state).Msg("alerts requested")

	return textResult(s.weather.Alerts(context.Background(), state)), nil
}

func (s *Server) handleNotification(notification mcp.JSONRPCNotification) {
	s.logger.Debug().Str("method", notification.Method).Msg("notification received")
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []interface{}{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}
