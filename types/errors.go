// types/errors.go
package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrSessionInit indicates session initialization failed
	ErrSessionInit = errors.New("session initialization failed")

	// ErrChatResponse indicates an invalid model response
	ErrChatResponse = errors.New("invalid chat response")

	// ErrToolExecution indicates a tool execution failure
	ErrToolExecution = errors.New("tool execution failed")

	// ErrToolBudget indicates too many consecutive tool calls in one turn
	ErrToolBudget = errors.New("tool call budget exhausted")

	// ErrEmptyMessage indicates a blank user message that was discarded
	ErrEmptyMessage = errors.New("empty message")
)

// ConfigError wraps configuration-related errors
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error in %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// MissingConfigError reports every required configuration item that is
// absent, so the user can fix all of them in one pass.
type MissingConfigError struct {
	Items []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Items, ", "))
}

func (e *MissingConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// SessionError wraps session-related errors
type SessionError struct {
	Op      string
	Message string
	Err     error
}

func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session error during %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("session error during %s: %s", e.Op, e.Message)
}

func (e *SessionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrSessionInit
}

// ChatError wraps model client errors
type ChatError struct {
	Op      string
	Message string
	Err     error
}

func (e *ChatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chat error during %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("chat error during %s: %s", e.Op, e.Message)
}

func (e *ChatError) Unwrap() error {
	return ErrChatResponse
}

// ToolError wraps tool-related errors
type ToolError struct {
	Tool    string
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool error in %s: %s: %v", e.Tool, e.Message, e.Err)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

func (e *ToolError) Unwrap() error {
	return ErrToolExecution
}
