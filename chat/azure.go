package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/kestrelworks/skybridge/config"
	"github.com/kestrelworks/skybridge/conversation"
	"github.com/kestrelworks/skybridge/types"
)

// Azure talks to an Azure OpenAI deployment through the official SDK
type Azure struct {
	client     *azopenai.Client
	deployment string
	logger     zerolog.Logger
}

// NewAzure builds a client from the azure section of the configuration
func NewAzure(cfg *config.Config, logger zerolog.Logger) (*Azure, error) {
	client, err := azopenai.NewClientWithKeyCredential(
		cfg.Azure.Endpoint,
		azcore.NewKeyCredential(cfg.Azure.APIKey),
		nil,
	)
	if err != nil {
		return nil, &types.ChatError{Op: "connect", Message: "failed to create Azure OpenAI client", Err: err}
	}

	return &Azure{
		client:     client,
		deployment: cfg.Azure.Deployment,
		logger:     logger.With().Str("chat", "azure").Logger(),
	}, nil
}

func (a *Azure) Complete(ctx context.Context, req Request) (types.Completion, error) {
	messages, err := azureMessages(req.Turns)
	if err != nil {
		return types.Completion{}, err
	}

	options := azopenai.ChatCompletionsOptions{
		DeploymentName: to.Ptr(a.deployment),
		Messages:       messages,
		Tools:          azureTools(req.Tools),
	}

	resp, err := a.client.GetChatCompletions(ctx, options, nil)
	if err != nil {
		if ctx.Err() != nil {
			return types.Completion{}, ctx.Err()
		}
		return types.Completion{}, &types.ChatError{Op: "completion", Message: "chat completion request failed", Err: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return types.Completion{}, &types.ChatError{Op: "completion", Message: "no choices returned"}
	}

	return azureCompletion(resp.Choices[0].Message)
}

func (a *Azure) Close() error {
	return nil
}

// azureMessages maps conversation turns onto the SDK's message types
func azureMessages(turns []conversation.Turn) ([]azopenai.ChatRequestMessageClassification, error) {
	messages := make([]azopenai.ChatRequestMessageClassification, 0, len(turns))

	for _, t := range turns {
		switch t.Role {
		case conversation.RoleSystem:
			messages = append(messages, &azopenai.ChatRequestSystemMessage{
				Content: azopenai.NewChatRequestSystemMessageContent(t.Content),
			})

		case conversation.RoleUser:
			messages = append(messages, &azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(t.Content),
			})

		case conversation.RoleAssistant:
			msg := &azopenai.ChatRequestAssistantMessage{}
			if t.Content != "" {
				msg.Content = azopenai.NewChatRequestAssistantMessageContent(t.Content)
			}
			for _, call := range t.ToolCalls {
				args, err := json.Marshal(call.Function.Arguments)
				if err != nil {
					return nil, &types.ChatError{Op: "request", Message: "failed to encode tool call arguments", Err: err}
				}
				msg.ToolCalls = append(msg.ToolCalls, &azopenai.ChatCompletionsFunctionToolCall{
					ID:   to.Ptr(call.ID),
					Type: to.Ptr("function"),
					Function: &azopenai.FunctionCall{
						Name:      to.Ptr(call.Function.Name),
						Arguments: to.Ptr(string(args)),
					},
				})
			}
			messages = append(messages, msg)

		case conversation.RoleTool:
			messages = append(messages, &azopenai.ChatRequestToolMessage{
				ToolCallID: to.Ptr(t.CallID),
				Content:    azopenai.NewChatRequestToolMessageContent(renderResult(t.Result)),
			})
		}
	}

	return messages, nil
}

func azureTools(tools []mcp.Tool) []azopenai.ChatCompletionsToolDefinitionClassification {
	if len(tools) == 0 {
		return nil
	}

	out := make([]azopenai.ChatCompletionsToolDefinitionClassification, 0, len(tools))
	for _, tool := range tools {
		// InputSchema marshals to a standard JSON schema object
		params, err := json.Marshal(tool.InputSchema)
		if err != nil {
			continue
		}
		out = append(out, &azopenai.ChatCompletionsFunctionToolDefinition{
			Type: to.Ptr("function"),
			Function: &azopenai.ChatCompletionsFunctionToolDefinitionFunction{
				Name:        to.Ptr(tool.Name),
				Description: to.Ptr(tool.Description),
				Parameters:  params,
			},
		})
	}
	return out
}

// azureCompletion converts the SDK response message into the neutral
// completion shape shared with the other backend
func azureCompletion(msg *azopenai.ChatResponseMessage) (types.Completion, error) {
	var completion types.Completion

	if msg.Content != nil {
		completion.Content = *msg.Content
	}

	for _, raw := range msg.ToolCalls {
		fc, ok := raw.(*azopenai.ChatCompletionsFunctionToolCall)
		if !ok || fc.Function == nil {
			continue
		}

		call := types.ToolCall{Type: "function"}
		if fc.ID != nil {
			call.ID = *fc.ID
		}
		if fc.Function.Name != nil {
			call.Function.Name = *fc.Function.Name
		}
		if fc.Function.Arguments != nil && *fc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(*fc.Function.Arguments), &call.Function.Arguments); err != nil {
				return types.Completion{}, &types.ChatError{
					Op:      "completion",
					Message: fmt.Sprintf("failed to decode arguments for tool call %s", call.ID),
					Err:     err,
				}
			}
		}

		completion.ToolCalls = append(completion.ToolCalls, call)
	}

	return completion, nil
}
