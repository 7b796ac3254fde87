package llm

import (
	"context"
	"log/slog"

	jsoniter "github.com/json-iterator/go"
)

// json is used for all JSON handling inside package llm.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LLMUsage is the provider independent token accounting.
type LLMUsage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	ThoughtsTokens   int    `json:"thoughts_tokens,omitempty"`
	CachedTokens     int    `json:"cached_tokens,omitempty"`
	StopReason       string `json:"stop_reason,omitempty"`
}

// LogUsage writes the usage of one completion at debug level.
func LogUsage(ctx context.Context, model string, usage *LLMUsage) {
	if usage == nil {
		return
	}
	attrs := []any{
		"model", model,
		"prompt", usage.PromptTokens,
		"completion", usage.CompletionTokens,
		"total", usage.TotalTokens,
	}
	if usage.ThoughtsTokens > 0 {
		attrs = append(attrs, "thoughts", usage.ThoughtsTokens)
	}
	if usage.CachedTokens > 0 {
		attrs = append(attrs, "cached", usage.CachedTokens)
	}
	if usage.StopReason != "" {
		attrs = append(attrs, "stop_reason", usage.StopReason)
	}
	slog.DebugContext(ctx, "Token usage", attrs...)
}

// Tool is the descriptor half of a tool: what the model needs to know to call it.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON-schema properties keyed by parameter name.
	Parameters() map[string]any
	RequiredParameters() []string
}

// ToolSchema builds the JSON-schema object describing a tool's parameters.
func ToolSchema(t Tool) map[string]any {
	props := t.Parameters()
	if props == nil {
		props = map[string]any{}
	}
	required := t.RequiredParameters()
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// LLMClient is the common interface of every model provider.
type LLMClient interface {
	// Provider returns the provider name, e.g. "openai".
	Provider() string

	// StreamChat starts a streamed completion over messages. tools may be empty.
	// The returned channel is closed after the final chunk.
	StreamChat(ctx context.Context, messages []Message, tools []Tool) (<-chan StreamChunk, error)

	// SetDebug toggles raw chunk dumps to the debug directory.
	SetDebug(enabled bool)
}
