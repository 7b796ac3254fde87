package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// StreamDebugger writes the raw chunks of one LLM stream to a file under
// debug/chunks/[<debug-id>/]<provider>/.
type StreamDebugger struct {
	file    *os.File
	enabled bool
}

// NewStreamDebugger opens the debug file immediately if enabled.
// Failures only disable the debugger.
func NewStreamDebugger(ctx context.Context, provider string, enabled bool) *StreamDebugger {
	if !enabled {
		return &StreamDebugger{enabled: false}
	}

	debugDir := filepath.Join("debug", "chunks", provider)

	if val := ctx.Value(DebugDirContextKey); val != nil {
		if dirStr, ok := val.(string); ok && dirStr != "" {
			debugDir = filepath.Join("debug", "chunks", dirStr, provider)
		}
	}

	if err := os.MkdirAll(debugDir, 0755); err != nil {
		slog.Error("Failed to create debug directory", "dir", debugDir, "error", err)
		return &StreamDebugger{enabled: false}
	}

	timestamp := time.Now().Format("20060102_150405.000")
	filename := filepath.Join(debugDir, fmt.Sprintf("%s.log", timestamp))

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("Failed to open debug file", "file", filename, "error", err)
		return &StreamDebugger{enabled: false}
	}

	slog.Debug("Debug mode ON", "provider", provider, "file", filename)
	return &StreamDebugger{
		file:    f,
		enabled: true,
	}
}

// Write appends data and a newline.
func (d *StreamDebugger) Write(data []byte) {
	if !d.enabled || d.file == nil {
		return
	}
	if _, err := d.file.Write(data); err != nil {
		slog.Warn("Failed to write to debug file", "error", err)
	}
	d.file.WriteString("\n")
}

// WriteString appends s and a newline.
func (d *StreamDebugger) WriteString(s string) {
	if !d.enabled || d.file == nil {
		return
	}
	if _, err := d.file.WriteString(s); err != nil {
		slog.Warn("Failed to write to debug file", "error", err)
	}
	d.file.WriteString("\n")
}

// WriteJSON marshals v and appends it.
func (d *StreamDebugger) WriteJSON(v any) {
	if !d.enabled || d.file == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Failed to marshal debug chunk", "error", err)
		return
	}
	d.Write(data)
}

// Close closes the debug file handle.
func (d *StreamDebugger) Close() {
	if d.file != nil {
		d.file.Close()
		d.file = nil
	}
}
