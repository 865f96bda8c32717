// In file: internal/llm/constants.go
package llm

import "time"

// Constants shared by the model clients.
const (
	defaultTimeout    = 120 * time.Second
	maxRetries        = 3
	initialRetryDelay = 2 * time.Second

	// DefaultOpenAIBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultOpenAIBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel         = "llama-3.1-8b-instant"
	DefaultGeminiModel   = "gemini-1.5-flash"

	defaultGeminiMaxTokens = 4096
)
