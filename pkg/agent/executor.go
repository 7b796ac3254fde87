package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"compass/pkg/api"
	"compass/pkg/llm"
	"compass/pkg/utils"
)

// ErrEmptyInput is returned for blank user input.
var ErrEmptyInput = errors.New("empty input")

// TurnExecutor runs one conversational turn: it hands the utterance and the
// current history to the reasoning engine and records the exchange only when
// the engine succeeds.
type TurnExecutor struct {
	engine       api.ReasoningEngine
	toolRegistry api.ToolRegistry
	systemPrompt string
}

// NewTurnExecutor creates an executor. registry may be nil when no tools are offered.
func NewTurnExecutor(engine api.ReasoningEngine, registry api.ToolRegistry, systemPrompt string) *TurnExecutor {
	return &TurnExecutor{
		engine:       engine,
		toolRegistry: registry,
		systemPrompt: systemPrompt,
	}
}

// Run executes a turn for input against history.
// On success history gains (user, input) then (assistant, answer). On any
// failure, cancellation included, history is left exactly as it was.
func (t *TurnExecutor) Run(ctx context.Context, input string, history *llm.ChatHistory) (*api.ExchangeResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	turnID := utils.GenerateID()
	ctx = context.WithValue(ctx, llm.DebugDirContextKey, turnID)

	var tools []api.Tool
	if t.toolRegistry != nil {
		tools = t.toolRegistry.GetAll()
	}

	start := time.Now()
	slog.InfoContext(ctx, "Turn started", "history", history.Len(), "tools", len(tools))

	result, err := t.engine.Run(ctx, t.systemPrompt, history.Messages(), input, tools)
	if err != nil {
		slog.ErrorContext(ctx, "Turn failed", "error", err, "elapsed", time.Since(start))
		return nil, fmt.Errorf("turn failed: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("turn failed: %w", ErrEmptyAnswer)
	}

	history.Append(llm.RoleUser, input)
	history.Append(llm.RoleAssistant, result.Answer)

	slog.InfoContext(ctx, "Turn completed", "tool_calls", len(result.ToolCalls), "elapsed", time.Since(start))
	return result, nil
}
