package api

import (
	"context"
	"iter"
	"time"

	"compass/pkg/llm"
)

// ReasoningEngine turns a conversation plus a set of tools into one final answer.
// It may call any of the tools, any number of times, before answering.
type ReasoningEngine interface {
	Run(ctx context.Context, systemPrompt string, history iter.Seq[llm.Message], userInput string, tools []Tool) (*ExchangeResult, error)
}

// ExchangeResult is the outcome of one conversational exchange.
type ExchangeResult struct {
	// Answer is the final assistant text.
	Answer string
	// ToolCalls lists every tool invocation made while producing Answer, in order.
	ToolCalls []ToolCallRecord
	// Usage is the token usage of the last completion, when reported.
	Usage *llm.LLMUsage
}

// ToolCallRecord captures a single tool invocation for diagnostics.
type ToolCallRecord struct {
	Round     int           `json:"round"`
	ToolName  string        `json:"tool_name"`
	CallID    string        `json:"call_id,omitempty"`
	Arguments string        `json:"arguments"`
	Result    string        `json:"result"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// ToolObserver is notified after each tool invocation.
type ToolObserver interface {
	OnToolCall(ctx context.Context, record ToolCallRecord)
}
