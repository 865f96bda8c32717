// In file: internal/agent/dispatcher.go
package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/dileep-u-k/weather-agent/internal/history"
)

// Runner executes one reasoning run. *Executor implements it.
type Runner interface {
	Run(ctx context.Context, query string, past []history.Message) (*Result, error)
}

// Dispatcher answers one chat turn: read the history window, reason, then
// append the user query and the answer in that order.
type Dispatcher struct {
	store  history.Store
	runner Runner
	window int
}

// NewDispatcher returns a dispatcher that feeds runner the last window
// messages of each session. A zero window means DefaultHistoryWindow.
func NewDispatcher(store history.Store, runner Runner, window int) *Dispatcher {
	if window == 0 {
		window = DefaultHistoryWindow
	}
	return &Dispatcher{store: store, runner: runner, window: window}
}

// Handle returns the final answer for query within sessionID. Nothing is
// appended to the session when reasoning fails.
func (d *Dispatcher) Handle(ctx context.Context, query, sessionID string) (string, error) {
	past, err := d.store.Window(ctx, sessionID, d.window)
	if err != nil {
		return "", fmt.Errorf("failed to load history: %w", err)
	}
	log.Printf("Session %s: %d message(s) in context window", sessionID, len(past))

	res, err := d.runner.Run(ctx, query, past)
	if err != nil {
		return "", err
	}
	log.Printf("✅ Session %s answered in %d iteration(s), %d tool call(s), %d tokens",
		sessionID, res.Iterations, len(res.Steps), res.Usage.TotalTokens)

	if err := d.store.AppendTurn(ctx, sessionID, query, res.Output); err != nil {
		return "", fmt.Errorf("failed to save conversation turn: %w", err)
	}
	return res.Output, nil
}
