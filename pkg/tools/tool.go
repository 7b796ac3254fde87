package tools

import (
	"compass/pkg/api"
	"sync"
)

// Re-export types from api package via aliases.
type Tool = api.Tool
type ToolResult = api.ToolResult
type ContentBlock = api.ContentBlock

// ToolRegistry is the inventory of tools offered to the model.
// GetAll returns tools in registration order so requests are stable.
type ToolRegistry struct {
	mu    sync.RWMutex    // Protects concurrent access to the tools map
	tools map[string]Tool // Internal map of tool name to implementation
	order []string        // Registration order
}

// NewToolRegistry creates a new tool registry
func NewToolRegistry(tools ...Tool) *ToolRegistry {
	tr := &ToolRegistry{
		tools: make(map[string]Tool),
	}
	for _, t := range tools {
		tr.Register(t)
	}
	return tr
}

// Register adds a tool to the registry, replacing any tool with the same name.
func (tr *ToolRegistry) Register(tool Tool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if _, exists := tr.tools[tool.Name()]; !exists {
		tr.order = append(tr.order, tool.Name())
	}
	tr.tools[tool.Name()] = tool
}

// Unregister removes a tool from the registry
func (tr *ToolRegistry) Unregister(name string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if _, exists := tr.tools[name]; !exists {
		return
	}
	delete(tr.tools, name)
	for i, n := range tr.order {
		if n == name {
			tr.order = append(tr.order[:i], tr.order[i+1:]...)
			break
		}
	}
}

// Get retrieves a tool by name
func (tr *ToolRegistry) Get(name string) (Tool, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tool, ok := tr.tools[name]
	return tool, ok
}

// GetAll returns all registered tools
func (tr *ToolRegistry) GetAll() []Tool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tools := make([]Tool, 0, len(tr.order))
	for _, name := range tr.order {
		tools = append(tools, tr.tools[name])
	}
	return tools
}
