// Package tools implements the assistant's built-in tools. These run
// in-process through the registry rather than behind an MCP server.
package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kestrelworks/skybridge/registry"
)

// RegisterTime adds the clock tool to a registry
func RegisterTime(reg *registry.Registry) error {
	tool := mcp.Tool{
		Name:        "get_time",
		Description: "Returns the current system time in UTC",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}

	return reg.Register(tool, func(ctx context.Context, args map[string]interface{}) (string, error) {
		return "The current time in UTC is " + time.Now().UTC().Format("2006-01-02 15:04:05"), nil
	})
}
