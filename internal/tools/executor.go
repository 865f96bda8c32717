// In file: internal/tools/executor.go
package tools

import "context"

// ToolExecutor is implemented by every tool the agent can call.
type ToolExecutor interface {
	// Definition returns the schema advertised to the model.
	Definition() Tool

	// Execute runs the tool with the raw argument string chosen by the model.
	// Domain failures are reported inside the returned text; the error is
	// reserved for faults the tool cannot describe to the model.
	Execute(ctx context.Context, arguments string) (string, error)
}
