// In file: internal/agent/config.go

// Package agent runs the reasoning loop that lets the model call weather tools
// and wraps it with the per-session history window.
package agent

import (
	"fmt"
	"strings"
)

// EarlyStopping selects what happens when the iteration budget runs out.
type EarlyStopping string

const (
	// StopGenerate asks the model once more, without tools, for a best-effort answer.
	StopGenerate EarlyStopping = "generate"
	// StopForce returns StoppedMessage without another model call.
	StopForce EarlyStopping = "force"
)

// StoppedMessage is returned when the loop is cut short and no answer could be generated.
const StoppedMessage = "Agent stopped due to iteration limit or time limit."

const (
	DefaultMaxIterations = 5
	DefaultHistoryWindow = 10
	DefaultTemperature   = 0.2
)

// Config holds the reasoning knobs. Zero values fall back to the defaults above.
type Config struct {
	Model         string        `yaml:"model"`
	Temperature   *float32      `yaml:"temperature"`
	MaxTokens     int           `yaml:"max_tokens"`
	MaxIterations int           `yaml:"max_iterations"`
	EarlyStopping EarlyStopping `yaml:"early_stopping"`
	// HandleParsingErrors feeds unknown tools and empty replies back to the
	// model as text instead of failing the request.
	HandleParsingErrors *bool `yaml:"handle_parsing_errors"`
	HistoryWindow       int   `yaml:"history_window"`
}

// DefaultConfig returns a Config with every knob set.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Temperature == nil {
		t := float32(DefaultTemperature)
		c.Temperature = &t
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	c.EarlyStopping = EarlyStopping(strings.ToLower(strings.TrimSpace(string(c.EarlyStopping))))
	if c.EarlyStopping == "" {
		c.EarlyStopping = StopGenerate
	}
	if c.HandleParsingErrors == nil {
		enabled := true
		c.HandleParsingErrors = &enabled
	}
	if c.HistoryWindow == 0 {
		c.HistoryWindow = DefaultHistoryWindow
	}
	return c
}

// Validate rejects unknown early-stopping methods.
func (c Config) Validate() error {
	switch EarlyStopping(strings.ToLower(string(c.EarlyStopping))) {
	case "", StopGenerate, StopForce:
		return nil
	}
	return fmt.Errorf("invalid early_stopping %q: want %q or %q", c.EarlyStopping, StopGenerate, StopForce)
}

func (c Config) recoverParsingErrors() bool {
	return c.HandleParsingErrors == nil || *c.HandleParsingErrors
}
