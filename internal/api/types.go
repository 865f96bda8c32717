// In file: internal/api/types.go

// Package api holds the wire types shared between the HTTP façade and the
// internal services.
package api

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id"`
}

// ChatResponse is returned for a successful POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
	// SessionID echoes the session the answer was recorded in. It is generated
	// when the request did not carry one.
	SessionID string `json:"session_id,omitempty"`
}

// ErrorResponse is returned for any non-2xx answer from the façade.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Usage reports token consumption for one or more LLM calls.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage record into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Version    string      `json:"version"`
	Components string      `json:"components"`
	Model      string      `json:"model"`
	Provider   string      `json:"provider"`
	Profile    interface{} `json:"profile,omitempty"`
}
