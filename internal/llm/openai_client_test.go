package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weatherTool() tools.Tool {
	return tools.NewFunctionTool("getCurrentWeather", "Current weather", tools.JSONSchema{
		Type: "object",
		Properties: map[string]*tools.JSONSchema{
			"city": {Type: "string"},
		},
	})
}

func TestOpenAIClientGenerateRequestShape(t *testing.T) {
	var got openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Sunny."}}],
			"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient("secret", srv.URL+"/")
	require.NoError(t, err)

	temp := float32(0.2)
	res, err := c.Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "weather?"},
		{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{{ID: "c1", Type: "function", Function: tools.ToolCallFunction{Name: "getCurrentWeather", Arguments: `{"city":"Oslo"}`}}}},
		{Role: RoleTool, Name: "getCurrentWeather", ToolCallID: "c1", Content: `{"cod":200}`},
	}, &GenerationConfig{Model: "llama-3.1-8b-instant", Temperature: &temp}, []tools.Tool{weatherTool()})
	require.NoError(t, err)

	assert.Equal(t, "Sunny.", res.Content)
	assert.Equal(t, 12, res.Usage.TotalTokens)

	assert.Equal(t, "llama-3.1-8b-instant", got.Model)
	assert.Equal(t, "auto", got.ToolChoice)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "getCurrentWeather", got.Tools[0].Function.Name)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "c1", got.Messages[2].ToolCalls[0].ID)
	assert.Equal(t, "c1", got.Messages[3].ToolCallID)
	assert.Equal(t, "getCurrentWeather", got.Messages[3].Name)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.2, *got.Temperature, 0.0001)
}

func TestOpenAIClientParsesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"getDailyForecast","arguments":"{\"city\":\"Paris\",\"days\":2}"}},
			{"type":"function","function":{"name":"getCurrentWeather","arguments":"Paris"}}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient("k", srv.URL)
	require.NoError(t, err)

	res, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.ToolCalls, 2)
	assert.Equal(t, "call_1", res.ToolCalls[0].ID)
	assert.Equal(t, `{"city":"Paris","days":2}`, res.ToolCalls[0].Function.Arguments)
	assert.True(t, strings.HasPrefix(res.ToolCalls[1].ID, "call_"))
	assert.NotEqual(t, "call_", res.ToolCalls[1].ID)
	assert.Equal(t, "Paris", res.ToolCalls[1].Function.Arguments)
}

func TestOpenAIClientNoToolsOmitsToolChoice(t *testing.T) {
	req := buildOpenAIRequest([]Message{{Role: RoleUser, Content: "hi"}}, nil, nil)
	assert.Equal(t, DefaultModel, req.Model)
	assert.Empty(t, req.ToolChoice)
	assert.Nil(t, req.Tools)
}

func TestOpenAIClientClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad tool schema"}}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient("k", srv.URL, WithRetryWait(time.Millisecond))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "bad tool schema")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOpenAIClientRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient("k", srv.URL, WithRetryWait(time.Millisecond))
	require.NoError(t, err)

	res, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Content)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOpenAIClientNoChoices(t *testing.T) {
	_, err := parseOpenAIResponse([]byte(`{"choices":[]}`))
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("", "")
	assert.Error(t, err)
}
