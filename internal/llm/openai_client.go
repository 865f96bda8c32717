// In file: internal/llm/openai_client.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/tools"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

var ErrNoChoices = errors.New("no choices returned from model")

// openAIRequest defines the top-level structure for a chat completions call.
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float32        `json:"temperature,omitempty"`
	TopP        *float32        `json:"top_p,omitempty"`
}

// openAIMessage represents a single message in a conversation.
type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCalls  []tools.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// openAITool defines the structure for a tool that the API can use.
type openAITool struct {
	Type     string         `json:"type"`
	Function tools.Function `json:"function"`
}

// openAIResponse is the structure of a successful response from the API.
type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage api.Usage `json:"usage"`
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
// Groq is the default; OpenAI itself works with its own base URL.
type OpenAIClient struct {
	client *resty.Client
}

// Statically verify that OpenAIClient implements the LLMClient interface.
var _ LLMClient = (*OpenAIClient)(nil)

type OpenAIOption func(*OpenAIClient)

// WithRetryWait overrides the initial backoff between retried attempts.
func WithRetryWait(d time.Duration) OpenAIOption {
	return func(c *OpenAIClient) {
		c.client.SetRetryWaitTime(d).SetRetryMaxWaitTime(4 * d)
	}
}

// NewOpenAIClient creates a client for baseURL, e.g. "https://api.groq.com/openai/v1".
// The model is specified per request via GenerationConfig.
func NewOpenAIClient(apiKey, baseURL string, opts ...OpenAIOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI-compatible API key cannot be empty")
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(defaultTimeout).
		SetRetryCount(maxRetries - 1).
		SetRetryWaitTime(initialRetryDelay).
		SetRetryMaxWaitTime(4 * initialRetryDelay).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Client errors are final; transport errors, 429 and 5xx are retried.
			if err != nil {
				return true
			}
			return r != nil && (r.StatusCode() == 429 || r.StatusCode() >= 500)
		})

	c := &OpenAIClient{client: client}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate performs a blocking request to the chat completions endpoint.
func (c *OpenAIClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	payload := buildOpenAIRequest(messages, config, availableTools)

	res, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("chat completions request failed: %w", err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("chat completions API error: status %d, body: %s", res.StatusCode(), res.String())
	}

	return parseOpenAIResponse(res.Body())
}

// buildOpenAIRequest converts our generic structures into the wire request.
func buildOpenAIRequest(messages []Message, config *GenerationConfig, availableTools []tools.Tool) openAIRequest {
	if config == nil {
		config = &GenerationConfig{}
	}
	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	req := openAIRequest{
		Model:    model,
		Messages: toOpenAIMessages(messages),
		Tools:    toOpenAITools(availableTools),
	}
	if config.MaxTokens > 0 {
		req.MaxTokens = config.MaxTokens
	}
	req.Temperature = config.Temperature
	req.TopP = config.TopP
	if len(req.Tools) > 0 {
		req.ToolChoice = "auto"
	}
	return req
}

// toOpenAIMessages converts our internal message slice to the API format.
func toOpenAIMessages(messages []Message) []openAIMessage {
	openAIMsgs := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		m := openAIMessage{Role: string(msg.Role), Content: msg.Content}

		switch msg.Role {
		case RoleTool:
			m.ToolCallID = msg.ToolCallID
			m.Name = msg.Name
		case RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				m.ToolCalls = make([]tools.ToolCall, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					m.ToolCalls[i] = *tc
				}
			}
		}
		openAIMsgs = append(openAIMsgs, m)
	}
	return openAIMsgs
}

// toOpenAITools converts our internal tool slice to the API format.
func toOpenAITools(availableTools []tools.Tool) []openAITool {
	if len(availableTools) == 0 {
		return nil
	}
	openAITools := make([]openAITool, 0, len(availableTools))
	for _, tool := range availableTools {
		openAITools = append(openAITools, openAITool{
			Type:     tools.ToolTypeFunction,
			Function: tool.Function,
		})
	}
	return openAITools
}

// parseOpenAIResponse converts a full API response to our internal GenerationResult.
func parseOpenAIResponse(body []byte) (*GenerationResult, error) {
	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat completions response: %w", err)
	}
	if len(openAIResp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := openAIResp.Choices[0]
	result := &GenerationResult{
		Content: choice.Message.Content,
		Usage:   openAIResp.Usage,
	}

	if len(choice.Message.ToolCalls) > 0 {
		result.ToolCalls = make([]*tools.ToolCall, 0, len(choice.Message.ToolCalls))
		for _, tc := range choice.Message.ToolCalls {
			id := tc.ID
			if id == "" {
				// Some compatible servers omit ids; the follow-up turn still needs one.
				id = "call_" + uuid.NewString()
			}
			result.ToolCalls = append(result.ToolCalls, &tools.ToolCall{
				ID:   id,
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
	}

	return result, nil
}
