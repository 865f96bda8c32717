// In file: internal/llm/client.go

// Package llm contains the model clients the agent reasons with and the
// redis-backed profiler that tracks their health, latency and token spend.
package llm

import (
	"context"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/tools"
)

// =================================================================================
// Core Data Structures
// =================================================================================

// Role represents the originator of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation sent to a model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Name is the tool name on RoleTool messages. Gemini matches results by name.
	Name       string            `json:"name,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// GenerationConfig holds the parameters that control the model's generation behavior.
type GenerationConfig struct {
	// The specific model to use for the generation (e.g., "llama-3.1-8b-instant").
	Model string
	// Controls randomness. A pointer distinguishes 0.0 from unset.
	Temperature *float32
	// The maximum number of tokens to generate in the response.
	MaxTokens int
	TopP      *float32
}

// GenerationResult holds the complete output from one model call.
type GenerationResult struct {
	Content string
	// Tool calls requested by the model, in the order the model listed them.
	ToolCalls []*tools.ToolCall
	Usage     api.Usage
}

// =================================================================================
// LLM Client Interface
// =================================================================================

// LLMClient is the interface every model backend implements.
type LLMClient interface {
	// Generate performs a blocking request with the full conversation and
	// the tools the model may call. A nil or empty tool list disables tool use.
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}
