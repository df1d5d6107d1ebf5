package transport

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/kestrelworks/skybridge/registry"
	"github.com/kestrelworks/skybridge/types"
)

// LocalName is the adapter name under which in-process tools are
// served. Tools from this adapter keep their bare names; tools from
// remote servers are presented under a server-prefixed name.
const LocalName = "local"

// Local invokes executors registered in-process. Panics inside an
// executor are recovered into failed results so a misbehaving tool
// cannot take the session down.
type Local struct {
	reg    *registry.Registry
	logger zerolog.Logger
}

// NewLocal wraps a registry as an adapter
func NewLocal(reg *registry.Registry, logger zerolog.Logger) *Local {
	return &Local{
		reg:    reg,
		logger: logger.With().Str("adapter", "local").Logger(),
	}
}

func (l *Local) Name() string {
	return LocalName
}

func (l *Local) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return l.reg.List(), nil
}

func (l *Local) Invoke(ctx context.Context, name string, args map[string]interface{}) (res types.Result) {
	exec, ok := l.reg.Lookup(name)
	if !ok {
		l.logger.Warn().Str("tool", name).Msg("unknown tool requested")
		return types.Result{Tool: name, Err: "unknown tool: " + name}
	}

	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Str("tool", name).Interface("panic", r).Msg("tool executor panicked")
			res = types.Result{Tool: name, Err: fmt.Sprintf("tool %s panicked: %v", name, r)}
		}
	}()

	output, err := exec(ctx, args)
	if err != nil {
		l.logger.Warn().Str("tool", name).Err(err).Msg("tool execution failed")
		return types.Result{Tool: name, Err: err.Error()}
	}

	return types.Result{Tool: name, OK: true, Output: output}
}

func (l *Local) Close() error {
	return nil
}
