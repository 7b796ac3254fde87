package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"compass/pkg/api"
	"compass/pkg/llm"
	"compass/pkg/monitor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner answers "echo: <input>" and records the exchange like the real executor.
type fakeRunner struct {
	mu     sync.Mutex
	inputs []string
	err    error
	block  chan struct{} // when set, Run signals on started and waits for ctx
	start  chan struct{}
}

func (r *fakeRunner) Run(ctx context.Context, input string, history *llm.ChatHistory) (*api.ExchangeResult, error) {
	r.mu.Lock()
	r.inputs = append(r.inputs, input)
	r.mu.Unlock()

	if r.block != nil {
		close(r.start)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	answer := "echo: " + input
	history.Append(llm.RoleUser, input)
	history.Append(llm.RoleAssistant, answer)
	return &api.ExchangeResult{Answer: answer}, nil
}

func newHandler(runner TurnRunner, history *llm.ChatHistory) (*ChatHandler, *bytes.Buffer) {
	var out bytes.Buffer
	return NewChatHandler(runner, history, monitor.NewCLIMonitor(&out, false), &out, 0), &out
}

func TestChatHandler_Conversation(t *testing.T) {
	runner := &fakeRunner{}
	history := llm.NewChatHistory(0)
	h, out := newHandler(runner, history)

	input := "\n   \nhello\nHISTORY\nQuit\nnever reached\n"
	require.NoError(t, h.Run(context.Background(), strings.NewReader(input), nil))

	assert.Equal(t, []string{"hello"}, runner.inputs)
	text := out.String()
	assert.Contains(t, text, "🤖 Agent: echo: hello")
	assert.Contains(t, text, "--- Chat History ---\nuser: hello\nassistant: echo: hello\n--- End History ---")
	assert.Contains(t, text, "\nGoodbye! 👋")
	assert.Equal(t, 2, history.Len())
}

func TestChatHandler_ExitCommands(t *testing.T) {
	for _, cmd := range []string{"quit", "exit", "q", "  EXIT  "} {
		runner := &fakeRunner{}
		h, out := newHandler(runner, llm.NewChatHistory(0))

		require.NoError(t, h.Run(context.Background(), strings.NewReader(cmd+"\nhello\n"), nil))
		assert.Empty(t, runner.inputs, cmd)
		assert.Contains(t, out.String(), "Goodbye! 👋", cmd)
	}
}

func TestChatHandler_ClearAndEmptyHistory(t *testing.T) {
	history := llm.NewChatHistory(0)
	history.Append(llm.RoleUser, "old")
	h, out := newHandler(&fakeRunner{}, history)

	require.NoError(t, h.Run(context.Background(), strings.NewReader("clear\nhistory\n"), nil))

	text := out.String()
	assert.Contains(t, text, "✅ Chat history cleared!")
	assert.Contains(t, text, "--- Chat History ---\nNo chat history yet.\n--- End History ---")
	assert.Zero(t, history.Len())
}

func TestChatHandler_HistoryPreviewTruncates(t *testing.T) {
	history := llm.NewChatHistory(0)
	history.Append(llm.RoleUser, strings.Repeat("a", 150))
	h, out := newHandler(&fakeRunner{}, history)

	require.NoError(t, h.Run(context.Background(), strings.NewReader("history\n"), nil))
	assert.Contains(t, out.String(), "user: "+strings.Repeat("a", 100)+"...\n")
}

func TestChatHandler_EOFSaysGoodbye(t *testing.T) {
	h, out := newHandler(&fakeRunner{}, llm.NewChatHistory(0))

	require.NoError(t, h.Run(context.Background(), strings.NewReader(""), nil))
	assert.Contains(t, out.String(), "Goodbye! 👋")
}

func TestChatHandler_LongLineReachesRunner(t *testing.T) {
	runner := &fakeRunner{}
	h, out := newHandler(runner, llm.NewChatHistory(0))

	long := strings.Repeat("a", 2<<20)
	require.NoError(t, h.Run(context.Background(), strings.NewReader(long+"\r\nquit\n"), nil))

	require.Len(t, runner.inputs, 1)
	assert.Equal(t, long, runner.inputs[0])
	assert.Contains(t, out.String(), "Goodbye! 👋")
}

func TestChatHandler_LastLineWithoutNewline(t *testing.T) {
	runner := &fakeRunner{}
	h, _ := newHandler(runner, llm.NewChatHistory(0))

	require.NoError(t, h.Run(context.Background(), strings.NewReader("hello\nbye"), nil))
	assert.Equal(t, []string{"hello", "bye"}, runner.inputs)
}

func TestChatHandler_ReadErrorIsReturned(t *testing.T) {
	runner := &fakeRunner{}
	h, out := newHandler(runner, llm.NewChatHistory(0))

	readErr := errors.New("disk gone")
	in := io.MultiReader(strings.NewReader("hello\n"), iotest.ErrReader(readErr))
	err := h.Run(context.Background(), in, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, []string{"hello"}, runner.inputs)
	assert.Contains(t, out.String(), "failed to read input: disk gone")
	assert.NotContains(t, out.String(), "Goodbye")
}

func TestChatHandler_ReaderStopsAfterRun(t *testing.T) {
	before := runtime.NumGoroutine()

	for i := 0; i < 5; i++ {
		h, _ := newHandler(&fakeRunner{}, llm.NewChatHistory(0))
		require.NoError(t, h.Run(context.Background(), strings.NewReader("quit\nmore\nmore\n"), nil))
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond)
}

func TestChatHandler_TurnErrorKeepsLooping(t *testing.T) {
	runner := &fakeRunner{err: errors.New("turn failed: provider down")}
	history := llm.NewChatHistory(0)
	h, out := newHandler(runner, history)

	require.NoError(t, h.Run(context.Background(), strings.NewReader("one\ntwo\nquit\n"), nil))

	assert.Equal(t, []string{"one", "two"}, runner.inputs)
	assert.Equal(t, 2, strings.Count(out.String(), "❌ Error: turn failed: provider down"))
	assert.Zero(t, history.Len())
}

func TestChatHandler_InterruptAtPrompt(t *testing.T) {
	h, out := newHandler(&fakeRunner{}, llm.NewChatHistory(0))

	// Input never arrives; the interrupt ends the session.
	blockingIn, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()
	defer blockingIn.Close()

	interrupts := make(chan os.Signal, 1)
	interrupts <- os.Interrupt

	require.NoError(t, h.Run(context.Background(), blockingIn, interrupts))
	assert.Contains(t, out.String(), "Goodbye! 👋")
}

func TestChatHandler_InterruptCancelsTurnOnly(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), start: make(chan struct{})}
	history := llm.NewChatHistory(0)
	h, out := newHandler(runner, history)

	interrupts := make(chan os.Signal, 1)
	go func() {
		select {
		case <-runner.start:
			interrupts <- os.Interrupt
		case <-time.After(5 * time.Second):
		}
	}()

	require.NoError(t, h.Run(context.Background(), strings.NewReader("slow question\nhistory\nquit\n"), interrupts))

	text := out.String()
	assert.Contains(t, text, "Interrupted. Type 'quit' to exit.")
	assert.Contains(t, text, "No chat history yet.")
	assert.Contains(t, text, "\nGoodbye! 👋")
	assert.Zero(t, history.Len())
}
