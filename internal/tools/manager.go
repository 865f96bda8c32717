// In file: internal/tools/manager.go
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrToolNotFound is returned by Execute for an unregistered name.
var ErrToolNotFound = errors.New("tool not found")

// ToolManager holds a registry of all available tools.
type ToolManager struct {
	tools map[string]ToolExecutor
}

// NewToolManager returns an empty registry.
func NewToolManager() *ToolManager {
	return &ToolManager{
		tools: make(map[string]ToolExecutor),
	}
}

// Register adds a new tool to the manager's registry.
func (tm *ToolManager) Register(tool ToolExecutor) {
	name := tool.Definition().Function.Name
	tm.tools[name] = tool
}

// GetDefinitions returns all registered tool definitions ordered by name, so
// prompts sent to the model are stable across requests.
func (tm *ToolManager) GetDefinitions() []Tool {
	names := tm.Names()
	defs := make([]Tool, 0, len(names))
	for _, name := range names {
		defs = append(defs, tm.tools[name].Definition())
	}
	return defs
}

// Names returns the sorted names of all registered tools.
func (tm *ToolManager) Names() []string {
	names := make([]string, 0, len(tm.tools))
	for name := range tm.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs a tool by name with the given arguments.
func (tm *ToolManager) Execute(ctx context.Context, name, arguments string) (string, error) {
	tool, ok := tm.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: '%s'", ErrToolNotFound, name)
	}
	return tool.Execute(ctx, arguments)
}

// ToolCount returns the number of registered tools.
func (tm *ToolManager) ToolCount() int {
	return len(tm.tools)
}
