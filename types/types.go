// types/types.go
package types

// ToolCall represents a tool invocation request from the model
type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	} `json:"function"`
}

// Completion represents one whole model reply, assembled after any
// streamed fragments have been drained
type Completion struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Result is the outcome of a single tool invocation. Every invocation
// produces exactly one Result; failures travel in Err rather than as
// Go errors crossing component boundaries.
type Result struct {
	Tool   string `json:"tool"`
	OK     bool   `json:"ok"`
	Output string `json:"output,omitempty"`
	Err    string `json:"error,omitempty"`
}
