package monitor

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"compass/pkg/api"
)

// CLIMonitor implements the Monitor interface, printing the conversation
// and, when enabled, a gray trace line per tool call.
type CLIMonitor struct {
	writer    io.Writer // The output destination, typically os.Stdout.
	showTrace bool
	mu        sync.Mutex
}

// NewCLIMonitor creates a new CLI monitor writing to w. A nil w selects stdout.
func NewCLIMonitor(w io.Writer, showTrace bool) *CLIMonitor {
	if w == nil {
		w = os.Stdout
	}
	return &CLIMonitor{
		writer:    w,
		showTrace: showTrace,
	}
}

// OnToolCall implements api.ToolObserver.
func (m *CLIMonitor) OnToolCall(ctx context.Context, record api.ToolCallRecord) {
	if !m.showTrace {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Use gray color for the trace
	fmt.Fprintf(m.writer, "\033[90m%s\033[0m\n", FormatToolCall(record))
}

// OnReply prints the agent's answer.
func (m *CLIMonitor) OnReply(answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.writer, "\n🤖 Agent: %s\n\n", answer)
}

// OnError prints a failed turn.
func (m *CLIMonitor) OnError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.writer, "\n❌ Error: %v\n\n", err)
}
