// In file: internal/agent/executor.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/history"
	"github.com/dileep-u-k/weather-agent/internal/llm"
	"github.com/dileep-u-k/weather-agent/internal/tools"
)

var ErrEmptyOutput = errors.New("model returned an empty reply")

// Toolbox is the tool registry the loop dispatches to. *tools.ToolManager implements it.
type Toolbox interface {
	GetDefinitions() []tools.Tool
	Names() []string
	Execute(ctx context.Context, name, arguments string) (string, error)
}

// Step records one tool invocation made during a run.
type Step struct {
	Tool        string
	Arguments   string
	Observation string
}

// Result is the outcome of one reasoning run.
type Result struct {
	Output     string
	Steps      []Step
	Iterations int
	// Stopped is set when the iteration budget ran out before a direct answer.
	Stopped bool
	Usage   api.Usage
}

// Observer is told about tool calls and run lengths. *metrics.Metrics implements it.
type Observer interface {
	ObserveToolCall(tool string, failed bool)
	ObserveIterations(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveToolCall(string, bool) {}
func (nopObserver) ObserveIterations(int)        {}

// Executor drives the model/tool loop for a single query.
type Executor struct {
	client   llm.LLMClient
	tools    Toolbox
	cfg      Config
	observer Observer
	now      func() time.Time
}

// NewExecutor returns an executor that lets client call the tools in toolbox.
// Unset knobs in cfg take the defaults applied by Config.WithDefaults.
func NewExecutor(client llm.LLMClient, toolbox Toolbox, cfg Config) *Executor {
	return &Executor{
		client:   client,
		tools:    toolbox,
		cfg:      cfg.WithDefaults(),
		observer: nopObserver{},
		now:      time.Now,
	}
}

// WithObserver attaches o to the executor and returns it.
func (e *Executor) WithObserver(o Observer) *Executor {
	if o != nil {
		e.observer = o
	}
	return e
}

// Run sends [system, past..., query] to the model and executes the tools it
// asks for until it answers in plain text or the iteration budget is spent.
func (e *Executor) Run(ctx context.Context, query string, past []history.Message) (*Result, error) {
	messages := buildMessages(e.now(), past, query)
	defs := e.tools.GetDefinitions()
	genCfg := &llm.GenerationConfig{
		Model:       e.cfg.Model,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	}
	res := &Result{}

	for i := 0; i < e.cfg.MaxIterations; i++ {
		res.Iterations = i + 1

		out, err := e.client.Generate(ctx, messages, genCfg, defs)
		if err != nil {
			return nil, fmt.Errorf("model generation failed: %w", err)
		}
		res.Usage.Add(out.Usage)

		if len(out.ToolCalls) == 0 {
			if strings.TrimSpace(out.Content) != "" {
				log.Printf("✅ Model answered after %d iteration(s)", res.Iterations)
				e.observer.ObserveIterations(res.Iterations)
				res.Output = strings.TrimSpace(out.Content)
				return res, nil
			}
			if !e.cfg.recoverParsingErrors() {
				return nil, ErrEmptyOutput
			}
			log.Printf("⚠️ Empty model reply on iteration %d, asking again", res.Iterations)
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: emptyReplyPrompt})
			continue
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: out.Content, ToolCalls: out.ToolCalls})
		for _, call := range out.ToolCalls {
			observation, err := e.invoke(ctx, call)
			if err != nil {
				return nil, err
			}
			e.observer.ObserveToolCall(call.Function.Name, strings.HasPrefix(observation, "Error:"))
			res.Steps = append(res.Steps, Step{
				Tool:        call.Function.Name,
				Arguments:   call.Function.Arguments,
				Observation: observation,
			})
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
				Content:    observation,
			})
		}
	}

	return e.stop(ctx, messages, genCfg, res)
}

// invoke runs one tool call. Unknown tools become observations when parsing
// errors are recovered and abort the run otherwise.
func (e *Executor) invoke(ctx context.Context, call *tools.ToolCall) (string, error) {
	log.Printf("🛠️ Executing tool: %s (ID: %s) with args: %s", call.Function.Name, call.ID, call.Function.Arguments)
	observation, err := e.tools.Execute(ctx, call.Function.Name, call.Function.Arguments)
	if err == nil {
		return observation, nil
	}
	if !e.cfg.recoverParsingErrors() {
		return "", fmt.Errorf("tool call %s failed: %w", call.Function.Name, err)
	}
	log.Printf("⚠️ Recovering from tool error: %v", err)
	return fmt.Sprintf("Error: %v. Available tools: %s.", err, strings.Join(e.tools.Names(), ", ")), nil
}

// stop applies the early-stopping method once the budget is exhausted.
func (e *Executor) stop(ctx context.Context, messages []llm.Message, genCfg *llm.GenerationConfig, res *Result) (*Result, error) {
	res.Stopped = true
	e.observer.ObserveIterations(res.Iterations)
	log.Printf("⚠️ Iteration limit (%d) reached, early stopping with %q", e.cfg.MaxIterations, e.cfg.EarlyStopping)

	if e.cfg.EarlyStopping == StopForce {
		res.Output = StoppedMessage
		return res, nil
	}

	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: finalAnswerPrompt})
	out, err := e.client.Generate(ctx, messages, genCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("final generation failed: %w", err)
	}
	res.Usage.Add(out.Usage)

	res.Output = strings.TrimSpace(out.Content)
	if res.Output == "" {
		res.Output = StoppedMessage
	}
	return res, nil
}
