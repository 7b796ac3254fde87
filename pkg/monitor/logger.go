package monitor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"compass/pkg/llm"
)

// CustomHandler implements slog.Handler to provide [TIME] [LEVEL] format
type CustomHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	opts   slog.HandlerOptions
	attrs  []slog.Attr
	prefix string
}

func NewCustomHandler(w io.Writer, opts slog.HandlerOptions) *CustomHandler {
	return &CustomHandler{
		w:    w,
		mu:   &sync.Mutex{},
		opts: opts,
	}
}

func (h *CustomHandler) Enabled(ctx context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *CustomHandler) Handle(ctx context.Context, r slog.Record) error {
	buf := bytes.NewBuffer(nil)

	// Extract DebugID from context if available
	debugID := ""
	if ctx != nil {
		if val := ctx.Value(llm.DebugDirContextKey); val != nil {
			if id, ok := val.(string); ok && id != "" {
				debugID = id
			}
		}
	}

	// [2006-01-02 15:04:05] [LEVEL] [DEBUG_ID] Message k="v"
	fmt.Fprintf(buf, "[%s] [%s]",
		r.Time.Format("2006-01-02 15:04:05"),
		r.Level,
	)

	if debugID != "" {
		fmt.Fprintf(buf, " [%s]", debugID)
	}

	fmt.Fprintf(buf, " %s", r.Message)

	for _, a := range h.attrs {
		h.appendAttr(buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(buf, h.prefix, a)
		return true
	})

	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *CustomHandler) appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, prefix, ga)
		}
		return
	}

	buf.WriteString(" ")
	buf.WriteString(prefix)
	buf.WriteString(a.Key)
	buf.WriteString("=")

	// Simple value formatting
	val := a.Value.Resolve()
	switch val.Kind() {
	case slog.KindString:
		fmt.Fprintf(buf, "%q", val.String())
	case slog.KindTime:
		buf.WriteString(val.Time().Format(time.RFC3339))
	default:
		fmt.Fprintf(buf, "%v", val.Any())
	}
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := *h
	nh.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	nh.attrs = append(nh.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		nh.attrs = append(nh.attrs, a)
	}
	return &nh
}

// WithGroup prefixes later attribute keys with "name.".
func (h *CustomHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

// ParseLevel maps a system.json log_level to a slog level. Unknown values select warn.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// SetupSlog initializes the global slog logger with the CustomHandler.
// Logs go to stderr so they never interleave with the chat on stdout.
func SetupSlog(levelStr string) {
	handler := NewCustomHandler(os.Stderr, slog.HandlerOptions{
		Level: ParseLevel(levelStr),
	})

	slog.SetDefault(slog.New(handler))
}

// PrintBanner prints the startup banner and the keys the configured stack needs.
func PrintBanner(w io.Writer, provider, model string, requiredKeys []KeyRequirement) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Compass - chat assistant with tools and memory")
	fmt.Fprintf(w, "Model: %s (%s)\n", model, provider)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "\n📋 Loading API keys from .env file...")
	if len(requiredKeys) > 0 {
		fmt.Fprintln(w, "\nRequired API Keys:")
		for _, k := range requiredKeys {
			fmt.Fprintf(w, "- %s (for %s)\n", k.Env, k.Purpose)
		}
	}
	fmt.Fprintln(w, rule)
}

// KeyRequirement names one environment variable the assistant needs.
type KeyRequirement struct {
	Env     string
	Purpose string
}

// PrintMissingKey explains how to supply a missing key.
func PrintMissingKey(w io.Writer, env string, all []KeyRequirement) {
	fmt.Fprintf(w, "\n⚠  %s not found in environment or .env file!\n", env)
	fmt.Fprintln(w, "\nPlease add to your .env file:")
	for _, k := range all {
		fmt.Fprintf(w, "%s=your-key-here\n", k.Env)
	}
}
