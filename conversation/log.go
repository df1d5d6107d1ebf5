// Package conversation keeps the ordered history of one chat session.
// The log is append-only: turns are never edited or removed, so the
// context replayed to the model is reproducible and auditable.
package conversation

import (
	"sync"
	"time"

	"github.com/kestrelworks/skybridge/types"
)

// Role identifies who produced a turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one immutable unit of conversation history. Content carries the
// text for system, user and assistant turns. Assistant turns may carry
// tool calls; tool turns carry the result of exactly one call.
type Turn struct {
	Role      Role
	Content   string
	ToolCalls []types.ToolCall
	CallID    string
	Result    *types.Result
	At        time.Time
}

// System builds a system turn
func System(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

// User builds a user turn
func User(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// Assistant builds an assistant turn, optionally carrying tool calls
func Assistant(content string, calls ...types.ToolCall) Turn {
	return Turn{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolResult builds a tool turn answering the call with the given ID
func ToolResult(callID string, res types.Result) Turn {
	return Turn{Role: RoleTool, CallID: callID, Result: &res}
}

// Log is an append-only sequence of turns, safe for one writer and
// concurrent readers
type Log struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewLog returns an empty conversation log
func NewLog() *Log {
	return &Log{}
}

// Append adds a turn to the end of the log. It stamps the turn if the
// caller did not.
func (l *Log) Append(t Turn) {
	if t.At.IsZero() {
		t.At = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns, t)
}

// Snapshot returns the turns appended so far, in append order. The
// returned slice is a copy; appending to the log later does not change
// it. Turns themselves are treated as read-only by all callers.
func (l *Log) Snapshot() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len reports how many turns have been appended
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}
