package monitor

import (
	"fmt"
	"strings"
	"time"

	"compass/pkg/api"
	"compass/pkg/llm"
)

// traceArgsChars and traceResultChars bound the argument and result shown per trace line.
const (
	traceArgsChars   = 80
	traceResultChars = 120
)

// Monitor observes the assistant while it works. It receives every tool call
// of a turn and the outcome of the turn.
type Monitor interface {
	api.ToolObserver

	// OnReply receives the final answer of a turn.
	OnReply(answer string)

	// OnError receives a failed turn.
	OnError(err error)
}

// FormatToolCall renders one tool call as a single trace line:
// 🛠️ name(args) → result (elapsed)
func FormatToolCall(record api.ToolCallRecord) string {
	args := strings.Join(strings.Fields(record.Arguments), " ")
	result := strings.Join(strings.Fields(record.Result), " ")

	line := fmt.Sprintf("🛠️  %s(%s) → %s",
		record.ToolName,
		llm.Preview(args, traceArgsChars),
		llm.Preview(result, traceResultChars),
	)
	if record.Duration > 0 {
		line += fmt.Sprintf(" (%s)", record.Duration.Round(time.Millisecond))
	}
	return line
}
