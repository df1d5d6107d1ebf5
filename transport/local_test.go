package transport

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelworks/skybridge/registry"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func localFixture(t *testing.T) *Local {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.Register(mcp.Tool{Name: "shout"}, func(ctx context.Context, args map[string]interface{}) (string, error) {
		text, _ := args["text"].(string)
		return strings.ToUpper(text), nil
	}))
	require.NoError(t, reg.Register(mcp.Tool{Name: "fail"}, func(ctx context.Context, args map[string]interface{}) (string, error) {
		return "", errors.New("backend unavailable")
	}))
	require.NoError(t, reg.Register(mcp.Tool{Name: "explode"}, func(ctx context.Context, args map[string]interface{}) (string, error) {
		panic("boom")
	}))

	return NewLocal(reg, testLogger())
}

func TestLocalListsRegisteredTools(t *testing.T) {
	local := localFixture(t)

	assert.Equal(t, LocalName, local.Name())

	tools, err := local.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 3)
	assert.Equal(t, "shout", tools[0].Name)
}

func TestLocalInvokeSuccess(t *testing.T) {
	local := localFixture(t)

	res := local.Invoke(context.Background(), "shout", map[string]interface{}{"text": "hi"})
	assert.True(t, res.OK)
	assert.Equal(t, "shout", res.Tool)
	assert.Equal(t, "HI", res.Output)
	assert.Empty(t, res.Err)
}

func TestLocalInvokeExecutorError(t *testing.T) {
	local := localFixture(t)

	res := local.Invoke(context.Background(), "fail", nil)
	assert.False(t, res.OK)
	assert.Equal(t, "backend unavailable", res.Err)
}

func TestLocalInvokeUnknownTool(t *testing.T) {
	local := localFixture(t)

	res := local.Invoke(context.Background(), "missing", nil)
	assert.False(t, res.OK)
	assert.Equal(t, "missing", res.Tool)
	assert.Equal(t, "unknown tool: missing", res.Err)
}

func TestLocalInvokeRecoversPanic(t *testing.T) {
	local := localFixture(t)

	res := local.Invoke(context.Background(), "explode", nil)
	assert.False(t, res.OK)
	assert.Equal(t, "explode", res.Tool)
	assert.Equal(t, "tool explode panicked: boom", res.Err)
}

func TestLocalCloseIsIdempotent(t *testing.T) {
	local := localFixture(t)

	assert.NoError(t, local.Close())
	assert.NoError(t, local.Close())
}
