package agent

import (
	"context"
	"errors"
	"iter"
	"testing"

	"compass/pkg/api"
	"compass/pkg/llm"
	"compass/pkg/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	answer string
	err    error

	gotPrompt  string
	gotInput   string
	gotHistory []llm.Message
	gotTools   []string
	gotDebugID string
}

func (f *fakeEngine) Run(ctx context.Context, systemPrompt string, history iter.Seq[llm.Message], userInput string, tools []api.Tool) (*api.ExchangeResult, error) {
	f.gotPrompt = systemPrompt
	f.gotInput = userInput
	f.gotHistory = nil
	for m := range history {
		f.gotHistory = append(f.gotHistory, m)
	}
	f.gotTools = nil
	for _, t := range tools {
		f.gotTools = append(f.gotTools, t.Name())
	}
	f.gotDebugID, _ = ctx.Value(llm.DebugDirContextKey).(string)

	if f.err != nil {
		return nil, f.err
	}
	return &api.ExchangeResult{Answer: f.answer}, nil
}

func TestTurnExecutor_SuccessAppendsExchange(t *testing.T) {
	engine := &fakeEngine{answer: "It is sunny."}
	registry := tools.NewToolRegistry(&echoTool{name: "echo"})
	history := llm.NewChatHistory(0)
	history.Append(llm.RoleUser, "hi")
	history.Append(llm.RoleAssistant, "hello")

	exec := NewTurnExecutor(engine, registry, "system prompt")
	res, err := exec.Run(context.Background(), "  weather?  ", history)
	require.NoError(t, err)

	assert.Equal(t, "It is sunny.", res.Answer)
	assert.Equal(t, "system prompt", engine.gotPrompt)
	assert.Equal(t, "weather?", engine.gotInput)
	assert.Len(t, engine.gotHistory, 2)
	assert.Equal(t, []string{"echo"}, engine.gotTools)
	assert.Len(t, engine.gotDebugID, 24)

	msgs := history.GetMessages()
	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleUser, msgs[2].Role)
	assert.Equal(t, "weather?", msgs[2].GetTextContent())
	assert.Equal(t, llm.RoleAssistant, msgs[3].Role)
	assert.Equal(t, "It is sunny.", msgs[3].GetTextContent())
}

func TestTurnExecutor_FailureLeavesHistoryUntouched(t *testing.T) {
	cause := errors.New("provider unavailable")
	engine := &fakeEngine{err: cause}
	history := llm.NewChatHistory(0)
	history.Append(llm.RoleUser, "hi")
	before := history.GetMessages()

	_, err := NewTurnExecutor(engine, nil, "").Run(context.Background(), "hello", history)
	require.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "turn failed")
	assert.Equal(t, before, history.GetMessages())
}

func TestTurnExecutor_CancelledTurnLeavesHistoryUntouched(t *testing.T) {
	engine := &fakeEngine{err: context.Canceled}
	history := llm.NewChatHistory(0)

	_, err := NewTurnExecutor(engine, nil, "").Run(context.Background(), "hello", history)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, history.Len())
}

func TestTurnExecutor_RejectsBlankInput(t *testing.T) {
	engine := &fakeEngine{answer: "unused"}
	history := llm.NewChatHistory(0)

	_, err := NewTurnExecutor(engine, nil, "").Run(context.Background(), "   ", history)
	require.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, history.Len())
	assert.Empty(t, engine.gotInput)
}

func TestTurnExecutor_WindowStaysBounded(t *testing.T) {
	engine := &fakeEngine{answer: "ok"}
	history := llm.NewChatHistory(0)
	exec := NewTurnExecutor(engine, nil, "")

	for range 15 {
		_, err := exec.Run(context.Background(), "again", history)
		require.NoError(t, err)
	}
	assert.Equal(t, llm.DefaultMaxTurns, history.Len())
	assert.Len(t, engine.gotHistory, llm.DefaultMaxTurns)
}

func TestTurnExecutor_WithToolCallingEngine(t *testing.T) {
	client := &scriptedClient{scripts: [][]llm.StreamChunk{
		callTool("c1", "echo", `{"text":"hi"}`),
		answer("done"),
	}}
	registry := tools.NewToolRegistry(&echoTool{name: "echo"})
	history := llm.NewChatHistory(0)

	res, err := NewTurnExecutor(NewToolCallingEngine(client, nil), registry, "sys").Run(context.Background(), "go", history)
	require.NoError(t, err)
	assert.Equal(t, "done", res.Answer)

	// Tool traffic stays in the scratch transcript.
	msgs := history.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "go", msgs[0].GetTextContent())
	assert.Equal(t, "done", msgs[1].GetTextContent())
}
