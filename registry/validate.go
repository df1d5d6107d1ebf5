package registry

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kestrelworks/skybridge/types"
)

// Validator checks tool calls produced by the model against the schemas
// the tools advertised
type Validator struct {
	tools map[string]mcp.Tool
}

// NewValidator creates a validator over the given tool descriptors
func NewValidator(tools []mcp.Tool) *Validator {
	toolMap := make(map[string]mcp.Tool, len(tools))
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}
	return &Validator{tools: toolMap}
}

// Known reports whether a tool with the given name was advertised
func (v *Validator) Known(name string) bool {
	_, ok := v.tools[name]
	return ok
}

// ValidateCall checks that the call names a known tool and that its
// arguments satisfy the tool's schema
func (v *Validator) ValidateCall(call types.ToolCall) error {
	tool, ok := v.tools[call.Function.Name]
	if !ok {
		return fmt.Errorf("unknown tool: %s", call.Function.Name)
	}

	if err := v.validateArguments(call.Function.Arguments, tool.InputSchema); err != nil {
		return fmt.Errorf("invalid arguments for tool %s: %w", call.Function.Name, err)
	}

	return nil
}

// validateArguments validates tool arguments against a schema
func (v *Validator) validateArguments(args map[string]interface{}, schema mcp.ToolInputSchema) error {
	for _, required := range schema.Required {
		if _, ok := args[required]; !ok {
			return fmt.Errorf("missing required field: %s", required)
		}
	}

	// A schema with no property map says nothing about arguments;
	// remote servers sometimes advertise tools that way
	if schema.Properties == nil {
		return nil
	}

	for name, value := range args {
		propSchema, ok := schema.Properties[name]
		if !ok {
			return fmt.Errorf("unknown property: %s", name)
		}

		propMap, ok := propSchema.(map[string]interface{})
		if !ok {
			continue
		}
		propType, ok := propMap["type"].(string)
		if !ok {
			continue
		}

		if err := v.validateType(value, propType); err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
	}

	return nil
}

// validateType validates a value against a JSON Schema type
func (v *Validator) validateType(value interface{}, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number", "integer":
		switch value.(type) {
		case float64, float32, int, int64, int32:
			// Valid numeric types
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
	default:
		return fmt.Errorf("unsupported type: %s", expectedType)
	}

	return nil
}
