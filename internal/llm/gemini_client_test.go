package llm

import (
	"context"
	"testing"

	"github.com/dileep-u-k/weather-agent/internal/tools"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGeminiContents(t *testing.T) {
	system, contents := toGeminiContents([]Message{
		{Role: RoleSystem, Content: "You are a weather assistant."},
		{Role: RoleUser, Content: "weather in Oslo and Paris?"},
		{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{
			{ID: "a", Function: tools.ToolCallFunction{Name: "getCurrentWeather", Arguments: `{"city":"Oslo"}`}},
			{ID: "b", Function: tools.ToolCallFunction{Name: "getCurrentWeather", Arguments: "Paris"}},
		}},
		{Role: RoleTool, Name: "getCurrentWeather", ToolCallID: "a", Content: "oslo"},
		{Role: RoleTool, Name: "getCurrentWeather", ToolCallID: "b", Content: "paris"},
	})

	assert.Equal(t, "You are a weather assistant.", system)
	require.Len(t, contents, 3)

	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, genai.Text("weather in Oslo and Paris?"), contents[0].Parts[0])

	assert.Equal(t, "model", contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, genai.FunctionCall{Name: "getCurrentWeather", Args: map[string]any{"city": "Oslo"}}, contents[1].Parts[0])
	assert.Equal(t, genai.FunctionCall{Name: "getCurrentWeather", Args: map[string]any{"input": "Paris"}}, contents[1].Parts[1])

	assert.Equal(t, "user", contents[2].Role)
	require.Len(t, contents[2].Parts, 2)
	assert.Equal(t, genai.FunctionResponse{Name: "getCurrentWeather", Response: map[string]any{"content": "paris"}}, contents[2].Parts[1])
}

func TestConvertSchema(t *testing.T) {
	s := convertSchema(tools.JSONSchema{
		Type:     "object",
		Required: []string{"city"},
		Properties: map[string]*tools.JSONSchema{
			"city": {Type: "string", Description: "City name"},
			"days": {Type: "integer"},
		},
	})
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"city"}, s.Required)
	assert.Equal(t, genai.TypeString, s.Properties["city"].Type)
	assert.Equal(t, "City name", s.Properties["city"].Description)
	assert.Equal(t, genai.TypeInteger, s.Properties["days"].Type)
}

func TestToGeminiToolsSingleDeclarationBlock(t *testing.T) {
	out := toGeminiTools([]tools.Tool{weatherTool(), weatherTool()})
	require.Len(t, out, 1)
	assert.Len(t, out[0].FunctionDeclarations, 2)
}

func TestParseGeminiResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.FunctionCall{Name: "getDailyForecast", Args: map[string]any{"city": "Rome", "days": float64(2)}},
			}},
		}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 7, TotalTokenCount: 7},
	}

	res, err := parseGeminiResponse(context.Background(), nil, resp)
	require.NoError(t, err)
	assert.Empty(t, res.Content)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "getDailyForecast", res.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"city":"Rome","days":2}`, res.ToolCalls[0].Function.Arguments)
	assert.NotEmpty(t, res.ToolCalls[0].ID)
	assert.Equal(t, 7, res.Usage.PromptTokens)
}

func TestParseGeminiResponseEmpty(t *testing.T) {
	_, err := parseGeminiResponse(context.Background(), nil, &genai.GenerateContentResponse{})
	assert.Error(t, err)
}
