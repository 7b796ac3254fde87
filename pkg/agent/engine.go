package agent

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"compass/pkg/api"
	"compass/pkg/config"
	"compass/pkg/llm"
	"compass/pkg/utils"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrTooManyToolRounds is returned when the model keeps requesting tools
	// past system.max_tool_rounds.
	ErrTooManyToolRounds = errors.New("too many tool rounds")
	// ErrEmptyAnswer is returned when a completion carries neither text nor tool calls.
	ErrEmptyAnswer = errors.New("model returned an empty answer")
)

// ToolCallingEngine is the reasoning loop: it streams a completion, executes
// the tools the model asks for, feeds their output back and repeats until the
// model answers in plain text. It implements api.ReasoningEngine.
type ToolCallingEngine struct {
	client   llm.LLMClient
	sysCfg   *config.SystemConfig
	observer api.ToolObserver
}

// NewToolCallingEngine creates an engine over client. A nil sysCfg selects the defaults.
func NewToolCallingEngine(client llm.LLMClient, sysCfg *config.SystemConfig) *ToolCallingEngine {
	if sysCfg == nil {
		sysCfg = config.DefaultSystemConfig()
	}
	return &ToolCallingEngine{
		client: client,
		sysCfg: sysCfg,
	}
}

// SetObserver sets the observer notified after every tool call.
func (e *ToolCallingEngine) SetObserver(observer api.ToolObserver) {
	e.observer = observer
}

// Run implements api.ReasoningEngine. The transcript it builds (system prompt,
// history, utterance, tool traffic) is scratch space and never leaks back into history.
func (e *ToolCallingEngine) Run(ctx context.Context, systemPrompt string, history iter.Seq[llm.Message], userInput string, tools []api.Tool) (*api.ExchangeResult, error) {
	if e.sysCfg.LLMTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.sysCfg.LLMTimeoutMs)*time.Millisecond)
		defer cancel()
	}

	transcript := make([]llm.Message, 0, llm.DefaultMaxTurns+2)
	if systemPrompt != "" {
		transcript = append(transcript, llm.NewSystemMessage(systemPrompt))
	}
	if history != nil {
		for m := range history {
			transcript = append(transcript, m)
		}
	}
	userMsg := llm.NewUserMessage(userInput)
	userMsg.ID = utils.GenerateID()
	transcript = append(transcript, userMsg)

	var available []llm.Tool
	byName := make(map[string]api.Tool, len(tools))
	if e.sysCfg.EnableTools {
		available = make([]llm.Tool, 0, len(tools))
		for _, t := range tools {
			available = append(available, t)
			byName[t.Name()] = t
		}
	}

	result := &api.ExchangeResult{}
	maxRounds := e.sysCfg.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = config.DefaultMaxToolRounds
	}

	for round := 0; ; round++ {
		assistantMsg, err := e.complete(ctx, transcript, available)
		if err != nil {
			return nil, err
		}
		if assistantMsg.Usage != nil {
			result.Usage = assistantMsg.Usage
		}

		if len(assistantMsg.ToolCalls) == 0 {
			answer := strings.TrimSpace(assistantMsg.GetTextContent())
			if answer == "" {
				return nil, ErrEmptyAnswer
			}
			result.Answer = answer
			return result, nil
		}

		if round >= maxRounds {
			slog.WarnContext(ctx, "Tool round limit reached", "max", maxRounds)
			return nil, fmt.Errorf("%w (limit %d)", ErrTooManyToolRounds, maxRounds)
		}

		transcript = append(transcript, assistantMsg)
		for _, tc := range assistantMsg.ToolCalls {
			record, toolMsg := e.resolveToolCall(ctx, round+1, tc, byName)
			transcript = append(transcript, toolMsg)
			result.ToolCalls = append(result.ToolCalls, record)
			if e.observer != nil {
				e.observer.OnToolCall(ctx, record)
			}
		}
	}
}

// complete streams one completion and folds its chunks into an assistant message.
func (e *ToolCallingEngine) complete(ctx context.Context, transcript []llm.Message, tools []llm.Tool) (llm.Message, error) {
	chunkCh, err := e.client.StreamChat(ctx, transcript, tools)
	if err != nil {
		slog.ErrorContext(ctx, "LLM stream init failed", "provider", e.client.Provider(), "error", err)
		return llm.Message{}, fmt.Errorf("reasoning engine: %w", err)
	}

	msg, err := CollectChunks(ctx, chunkCh)
	if err != nil {
		return llm.Message{}, fmt.Errorf("reasoning engine: %w", err)
	}
	return msg, nil
}

// CollectChunks consumes a StreamChunk channel into one assistant message.
// It returns on the final chunk, on the first error chunk, or when ctx is done.
func CollectChunks(ctx context.Context, chunkCh <-chan llm.StreamChunk) (llm.Message, error) {
	msg := llm.Message{
		ID:        utils.GenerateID(),
		Role:      llm.RoleAssistant,
		Content:   []llm.ContentBlock{},
		Timestamp: time.Now().Unix(),
	}

	for {
		select {
		case chunk, ok := <-chunkCh:
			if !ok {
				return msg, nil
			}
			if chunk.RawError != nil {
				return msg, chunk.RawError
			}
			if chunk.Error != "" {
				return msg, errors.New(chunk.Error)
			}

			ProcessChunk(chunk, &msg)

			if chunk.IsFinal {
				return msg, nil
			}

		case <-ctx.Done():
			return msg, ctx.Err()
		}
	}
}

// ProcessChunk merges a single chunk into msg.
func ProcessChunk(chunk llm.StreamChunk, msg *llm.Message) {
	for _, block := range chunk.ContentBlocks {
		msg.AddContentBlock(block)
	}
	if len(chunk.ToolCalls) > 0 {
		msg.ToolCalls = append(msg.ToolCalls, chunk.ToolCalls...)
	}
	if chunk.Usage != nil {
		msg.Usage = chunk.Usage
	}
}

// resolveToolCall executes one call and always yields a tool message, even
// when the tool is unknown, the arguments are malformed or the tool panics.
func (e *ToolCallingEngine) resolveToolCall(ctx context.Context, round int, tc llm.ToolCall, tools map[string]api.Tool) (record api.ToolCallRecord, toolMsg llm.Message) {
	name := strings.TrimPrefix(tc.Name, "functions.")
	if name == "" {
		name = strings.TrimPrefix(tc.Function.Name, "functions.")
	}
	record = api.ToolCallRecord{
		Round:     round,
		ToolName:  name,
		CallID:    tc.ID,
		Arguments: tc.Function.Arguments,
	}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Tool execution panicked", "tool", name, "error", r)
			record.Error = fmt.Sprint(r)
			record.Result = "Error: Internal processing panic"
		}
		record.Duration = time.Since(start)

		toolMsg = llm.NewTextMessage(llm.RoleTool, record.Result)
		toolMsg.ID = utils.GenerateID()
		toolMsg.ToolCallID = tc.ID
		toolMsg.ToolName = name
	}()

	text, err := HandleToolCall(ctx, name, tc.Function.Arguments, tools)
	record.Result = text
	if err != nil {
		record.Error = err.Error()
	}
	return record, toolMsg
}

// HandleToolCall resolves a tool by name, decodes its arguments and runs it.
// Every failure is reported as text so the model can read it; the returned
// error only marks the failure for diagnostics.
func HandleToolCall(ctx context.Context, name, arguments string, tools map[string]api.Tool) (string, error) {
	tool, ok := tools[name]
	if !ok {
		slog.ErrorContext(ctx, "Unknown tool call", "name", name)
		err := fmt.Errorf("unknown tool '%s'", name)
		return "Error: " + err.Error(), err
	}

	args := map[string]any{}
	if strings.TrimSpace(arguments) != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			slog.ErrorContext(ctx, "Failed to parse tool args", "tool", name, "error", err)
			return fmt.Sprintf("Error: Failed to parse tool arguments: %v", err), err
		}
	}

	slog.InfoContext(ctx, "Executing tool", "name", name, "args", args)
	res, err := tool.Execute(ctx, args)
	if err != nil {
		slog.ErrorContext(ctx, "Tool execution error", "name", name, "error", err)
		return fmt.Sprintf("Error: Tool execution failed: %v", err), err
	}

	text := res.Text()
	if text == "" {
		text = "(No output)"
	}
	return text, nil
}
