// In file: internal/agent/prompt.go
package agent

import (
	"fmt"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/history"
	"github.com/dileep-u-k/weather-agent/internal/llm"
)

const systemPromptTemplate = `You are a helpful weather assistant. Today is %s.

Answer questions about current weather, upcoming forecasts and past weather by calling the tools you are given.
- Use getCurrentWeather for today, getDailyForecast for days after today and getHistoricalData for days before today.
- Pass only the city name the user mentioned. If the user did not mention a city, pass "None" and the tool will detect their location.
- Tool results are raw JSON from the weather service. Summarize them in plain language with units in metric.
- If a tool returns a message starting with "Error:", explain the problem to the user or retry with corrected arguments.
- Keep answers short and conversational.`

const finalAnswerPrompt = "You have used all available tool calls. Using only the information gathered above, give your best final answer to my question now without calling any tools."

const emptyReplyPrompt = "Your last reply was empty. Either call one of the tools or answer my question directly."

func systemPrompt(now time.Time) string {
	return fmt.Sprintf(systemPromptTemplate, now.Format("Monday, January 2, 2006"))
}

// buildMessages lays out the conversation sent on the first model call.
func buildMessages(now time.Time, past []history.Message, query string) []llm.Message {
	messages := make([]llm.Message, 0, len(past)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt(now)})
	for _, m := range past {
		role := llm.RoleUser
		if m.Role == history.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Text})
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: query})
}
