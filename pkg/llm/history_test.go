package llm

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(h *ChatHistory) []Message {
	var out []Message
	for m := range h.Messages() {
		out = append(out, m)
	}
	return out
}

func TestChatHistory_DefaultWindow(t *testing.T) {
	assert.Equal(t, DefaultMaxTurns, NewChatHistory(0).MaxTurns())
	assert.Equal(t, DefaultMaxTurns, NewChatHistory(-3).MaxTurns())
	assert.Equal(t, 4, NewChatHistory(4).MaxTurns())
}

func TestChatHistory_NeverExceedsWindow(t *testing.T) {
	h := NewChatHistory(0)
	for i := range 57 {
		h.Append(RoleUser, fmt.Sprintf("turn %d", i))
		assert.LessOrEqual(t, h.Len(), DefaultMaxTurns)
	}
	assert.Equal(t, DefaultMaxTurns, h.Len())
}

func TestChatHistory_EvictsOldestFirst(t *testing.T) {
	h := NewChatHistory(0)
	for i := 1; i <= 22; i++ {
		h.Append(RoleUser, fmt.Sprintf("t%d", i))
	}

	msgs := h.GetMessages()
	require.Len(t, msgs, 20)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("t%d", i+3), m.GetTextContent())
	}
}

func TestChatHistory_EvictionMaySplitPair(t *testing.T) {
	h := NewChatHistory(3)
	h.Append(RoleUser, "q1")
	h.Append(RoleAssistant, "a1")
	h.Append(RoleUser, "q2")
	h.Append(RoleAssistant, "a2")

	msgs := h.GetMessages()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
	assert.Equal(t, "a1", msgs[0].GetTextContent())
}

func TestChatHistory_MessagesIsRestartable(t *testing.T) {
	h := NewChatHistory(0)
	h.Append(RoleUser, "hello")
	h.Append(RoleAssistant, "hi")

	seq := h.Messages()
	var first, second []string
	for m := range seq {
		first = append(first, m.Role+":"+m.GetTextContent())
	}
	for m := range seq {
		second = append(second, m.Role+":"+m.GetTextContent())
	}

	assert.Equal(t, []string{"user:hello", "assistant:hi"}, first)
	assert.Equal(t, first, second)
}

func TestChatHistory_MessagesStopsEarly(t *testing.T) {
	h := NewChatHistory(0)
	for i := range 5 {
		h.Append(RoleUser, fmt.Sprint(i))
	}

	n := 0
	for range h.Messages() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestChatHistory_ClearIsIdempotent(t *testing.T) {
	h := NewChatHistory(0)
	h.Append(RoleUser, "x")

	h.Clear()
	h.Clear()

	assert.Zero(t, h.Len())
	assert.Empty(t, h.Snapshot(0))
	assert.Empty(t, collect(h))
}

func TestChatHistory_GetMessagesReturnsCopy(t *testing.T) {
	h := NewChatHistory(0)
	h.Append(RoleUser, "original")

	msgs := h.GetMessages()
	msgs[0] = NewUserMessage("changed")

	assert.Equal(t, "original", h.GetMessages()[0].GetTextContent())
}

func TestChatHistory_Snapshot(t *testing.T) {
	h := NewChatHistory(0)
	exact := strings.Repeat("a", 100)
	long := strings.Repeat("b", 101)
	h.Append(RoleUser, exact)
	h.Append(RoleAssistant, long)
	h.Append(RoleUser, "short")

	snap := h.Snapshot(0)
	require.Len(t, snap, 3)

	assert.Equal(t, TurnPreview{Role: RoleUser, Text: exact}, snap[0])
	assert.Equal(t, RoleAssistant, snap[1].Role)
	assert.Equal(t, strings.Repeat("b", 100)+"...", snap[1].Text)
	assert.Equal(t, "short", snap[2].Text)
}

func TestPreview_CountsCharacters(t *testing.T) {
	text := strings.Repeat("天", 5)
	assert.Equal(t, text, Preview(text, 5))
	assert.Equal(t, "天天天...", Preview(text, 3))
	assert.Equal(t, "", Preview("", 3))
}
