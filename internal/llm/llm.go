// Package llm provides the completion-provider abstraction used by the
// assistant core, plus the Anthropic-backed implementation.
package llm

import (
	"context"
	"fmt"
)

// Role tags a message in a conversation history.
type Role string

const (
	// RoleSystem is an instruction message.
	RoleSystem Role = "system"
	// RoleHuman is a user message.
	RoleHuman Role = "human"
	// RoleAI is an assistant message, possibly carrying tool calls.
	RoleAI Role = "ai"
	// RoleTool is a tool execution result.
	RoleTool Role = "tool"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	// ID is the provider-assigned call ID, echoed back in the result.
	ID string `json:"id"`
	// Name is the requested tool name.
	Name string `json:"name"`
	// Args holds the decoded call arguments.
	Args map[string]any `json:"args"`
}

// Message is one entry in a conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// ToolCalls are tool invocations attached to an assistant message.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID links a tool-result message back to the originating call.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolName is the tool that produced a tool-result message.
	ToolName string `json:"tool_name,omitempty"`
}

// InputSchema describes the expected arguments of a tool.
type InputSchema struct {
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required,omitempty"`
}

// ToolDefinition declares a callable tool to the provider.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Schema      InputSchema `json:"input_schema"`
}

// CompletionRequest is one provider invocation.
type CompletionRequest struct {
	// System is the system instruction for this call.
	System string
	// Messages is the conversation history, oldest first.
	Messages []Message
	// Tools declares the tools the model may request. Empty means text-only.
	Tools []ToolDefinition
	// MaxTokens caps the response length. Zero uses the provider default.
	MaxTokens int64
}

// Completion is the provider's response: assistant text, zero or more
// requested tool calls, or both.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the model requested any tool invocations.
func (c *Completion) HasToolCalls() bool {
	return len(c.ToolCalls) > 0
}

// Provider is the abstract text-generation service.
type Provider interface {
	// Complete invokes the model once. Transport, auth, and quota
	// failures are returned as *ProviderError.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// ProviderError wraps a failed provider call.
type ProviderError struct {
	// Op names the failed operation.
	Op string
	// Err is the underlying failure.
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
