package api

import (
	"context"
	"strings"

	"compass/pkg/llm"
)

// Tool defines a capability the model may invoke. It carries the descriptor
// the model sees (name, description, JSON schema) and the execution logic.
type Tool interface {
	llm.Tool
	// Execute runs the tool with the decoded argument map.
	Execute(ctx context.Context, args map[string]any) (*ToolResult, error)
}

// ToolResult is the outcome of one tool execution.
type ToolResult struct {
	Content []ContentBlock `json:"content"`           // Ordered blocks of result data
	Details map[string]any `json:"details,omitempty"` // Arbitrary technical metadata
}

// ContentBlock is one piece of tool output.
type ContentBlock struct {
	Type string `json:"type"` // "text"
	Text string `json:"text,omitempty"`
}

// NewTextResult wraps a single string as a ToolResult.
func NewTextResult(text string) *ToolResult {
	return &ToolResult{
		Content: []ContentBlock{{Type: llm.BlockTypeText, Text: text}},
	}
}

// Text concatenates the text blocks of the result.
func (r *ToolResult) Text() string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	for _, b := range r.Content {
		if b.Type == llm.BlockTypeText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// ToolRegistry defines the interface for managing and accessing tools.
type ToolRegistry interface {
	Register(tool Tool)
	Unregister(name string)
	Get(name string) (Tool, bool)
	GetAll() []Tool
}
