package llm

import (
	"iter"
	"sync"
)

const (
	// DefaultMaxTurns is the window size: ten user/assistant exchanges.
	DefaultMaxTurns = 20
	// DefaultPreviewChars is the per-turn preview length used by Snapshot.
	DefaultPreviewChars = 100

	previewEllipsis = "..."
)

// ChatHistory is a sliding window over the most recent turns of one conversation.
// When the window is full the oldest turns are dropped first, one at a time, so a
// user turn may lose its assistant reply.
type ChatHistory struct {
	messages []Message
	maxTurns int
	mu       sync.RWMutex
}

// TurnPreview is one display line of a history snapshot.
type TurnPreview struct {
	Role string
	Text string
}

// NewChatHistory creates an empty history holding at most maxTurns turns.
// A non-positive maxTurns selects DefaultMaxTurns.
func NewChatHistory(maxTurns int) *ChatHistory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &ChatHistory{
		messages: make([]Message, 0, maxTurns),
		maxTurns: maxTurns,
	}
}

// Add appends msg and evicts from the front until the window fits.
func (h *ChatHistory) Add(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, msg)
	if over := len(h.messages) - h.maxTurns; over > 0 {
		kept := make([]Message, h.maxTurns)
		copy(kept, h.messages[over:])
		h.messages = kept
	}
}

// Append adds a single text turn.
func (h *ChatHistory) Append(role, text string) {
	h.Add(NewTextMessage(role, text))
}

// Messages returns the turns in stored order. Every range over the sequence
// reads the window as it is when that iteration starts.
func (h *ChatHistory) Messages() iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for _, m := range h.GetMessages() {
			if !yield(m) {
				return
			}
		}
	}
}

// GetMessages returns a copy of the current window.
func (h *ChatHistory) GetMessages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cp := make([]Message, len(h.messages))
	copy(cp, h.messages)
	return cp
}

// Len returns the number of stored turns.
func (h *ChatHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// MaxTurns returns the window size.
func (h *ChatHistory) MaxTurns() int {
	return h.maxTurns
}

// Clear empties the history.
func (h *ChatHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = make([]Message, 0, h.maxTurns)
}

// Snapshot returns a display view of the history. Texts longer than
// previewChars characters are cut and suffixed with "...".
// A non-positive previewChars selects DefaultPreviewChars.
func (h *ChatHistory) Snapshot(previewChars int) []TurnPreview {
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}

	msgs := h.GetMessages()
	out := make([]TurnPreview, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, TurnPreview{
			Role: m.Role,
			Text: Preview(m.GetTextContent(), previewChars),
		})
	}
	return out
}

// Preview cuts text to limit characters, appending "..." when it was cut.
func Preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + previewEllipsis
}
