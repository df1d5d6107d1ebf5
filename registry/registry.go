// Package registry catalogs the tools a session may invoke. Registration
// happens once at startup; afterwards the registry is read-only and may
// be shared across sessions without further locking discipline.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrDuplicate is returned when a tool name is registered twice
var ErrDuplicate = errors.New("tool already registered")

// Executor runs one tool invocation and returns its textual output
type Executor func(ctx context.Context, args map[string]interface{}) (string, error)

// Registry maps tool names to executors and remembers registration order
// so the schema list presented to the model is deterministic
type Registry struct {
	mu    sync.RWMutex
	execs map[string]Executor
	order []mcp.Tool
}

// New returns an empty registry
func New() *Registry {
	return &Registry{
		execs: make(map[string]Executor),
	}
}

// Register adds a tool and its executor. The name must be unique within
// the registry.
func (r *Registry) Register(tool mcp.Tool, exec Executor) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if exec == nil {
		return fmt.Errorf("executor for tool %q is nil", tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.execs[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, tool.Name)
	}

	r.execs[tool.Name] = exec
	r.order = append(r.order, tool)
	return nil
}

// List returns the registered tools in registration order
func (r *Registry) List() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]mcp.Tool, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the executor registered under name
func (r *Registry) Lookup(name string) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exec, ok := r.execs[name]
	return exec, ok
}
