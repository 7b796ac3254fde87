package tools

import (
	"context"
	"time"
)

// DateTimeLayout is the format returned by the clock tool.
const DateTimeLayout = "2006-01-02 15:04:05"

// DateTimeTool reports the current local date and time.
type DateTimeTool struct {
	now func() time.Time
}

// NewDateTimeTool creates a clock tool reading the system clock.
func NewDateTimeTool() *DateTimeTool {
	return &DateTimeTool{now: time.Now}
}

func (t *DateTimeTool) Name() string {
	return "get_current_datetime"
}

func (t *DateTimeTool) Description() string {
	return "Get the current date and time."
}

func (t *DateTimeTool) Parameters() map[string]any {
	return map[string]any{}
}

func (t *DateTimeTool) RequiredParameters() []string {
	return nil
}

func (t *DateTimeTool) Execute(ctx context.Context, args map[string]any) (*ToolResult, error) {
	return textResult(t.now().Local().Format(DateTimeLayout)), nil
}
