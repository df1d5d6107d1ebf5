// Package transport executes tool invocations for a session regardless
// of where the executor lives: in-process, behind a child process
// speaking newline-delimited JSON-RPC on its pipes, or behind an HTTP
// endpoint. Every adapter converts its failures into Result values;
// errors never escape an Invoke call.
package transport

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kestrelworks/skybridge/types"
)

// DefaultTimeout bounds a single tool invocation
const DefaultTimeout = 30 * time.Second

// Adapter is the boundary through which a session reaches tool executors
type Adapter interface {
	// Name identifies the adapter, used to namespace its tools
	Name() string

	// ListTools returns the tools this adapter can invoke. Called once
	// per session; the caller caches the result.
	ListTools(ctx context.Context) ([]mcp.Tool, error)

	// Invoke runs one tool call and returns exactly one Result. Failures
	// of any kind, including timeouts and panics, come back inside the
	// Result rather than as an error.
	Invoke(ctx context.Context, name string, args map[string]interface{}) types.Result

	// Close releases the underlying transport resource. Safe to call
	// more than once.
	Close() error
}
