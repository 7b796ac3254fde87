package llm

import (
	"strings"
	"time"
)

//----------------------------------------------------------------
// Message - unified message structure shared by every provider
//----------------------------------------------------------------

// Message represents one entry of a conversation transcript.
type Message struct {
	ID        string         `json:"id,omitempty"`
	Role      string         `json:"role"`    // "user", "assistant", "system", "tool"
	Content   []ContentBlock `json:"content"` // ordered content blocks
	Timestamp int64          `json:"timestamp,omitempty"`

	// ToolCalls holds the tool invocations requested by the model (role: assistant only).
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool result to the call that produced it (role: tool only).
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolName is the name of the tool whose result this message carries (role: tool only).
	ToolName string `json:"tool_name,omitempty"`

	// Usage is filled on assistant messages assembled from a stream.
	Usage *LLMUsage `json:"-"`
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Function FunctionCall `json:"function"`

	// Meta keeps provider specific data needed to echo the call back
	// (e.g. Gemini's original FunctionCall with its thought signature).
	// It is never serialized.
	Meta map[string]any `json:"-"`
}

// FunctionCall carries the tool name and its JSON encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

//----------------------------------------------------------------
// ContentBlock
//----------------------------------------------------------------

// ContentBlock is one unit of message content: text, thinking or error.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

//----------------------------------------------------------------
// StreamChunk
//----------------------------------------------------------------

// StreamChunk is one incremental piece of a streamed model response.
type StreamChunk struct {
	// ContentBlocks only contains content added since the previous chunk.
	ContentBlocks []ContentBlock `json:"content_blocks,omitempty"`

	// ToolCalls requested by the model.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// IsFinal marks the last chunk of the stream.
	IsFinal bool `json:"is_final"`

	// FinishReason is only set on the final chunk.
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage may arrive early but is always present on the final chunk when the provider reports it.
	Usage *LLMUsage `json:"usage,omitempty"`

	// Error is a provider reported failure in human readable form.
	Error string `json:"error,omitempty"`
	// RawError is the underlying error, if any.
	RawError error `json:"-"`
}

//----------------------------------------------------------------
// Helper Functions - Message
//----------------------------------------------------------------

// NewTextMessage creates a single text block message.
func NewTextMessage(role, text string) Message {
	return Message{
		Role:      role,
		Content:   []ContentBlock{NewTextBlock(text)},
		Timestamp: time.Now().Unix(),
	}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(text string) Message {
	return NewTextMessage(RoleSystem, text)
}

// NewUserMessage creates a user message.
func NewUserMessage(text string) Message {
	return NewTextMessage(RoleUser, text)
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(text string) Message {
	return NewTextMessage(RoleAssistant, text)
}

// AddContentBlock appends a block to the message.
func (m *Message) AddContentBlock(block ContentBlock) {
	m.Content = append(m.Content, block)
}

// GetTextContent concatenates all text blocks, excluding thinking and errors.
func (m *Message) GetTextContent() string {
	var sb strings.Builder
	for _, block := range m.Content {
		if block.Type == BlockTypeText {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// GetThinkingContent concatenates all thinking blocks.
func (m *Message) GetThinkingContent() string {
	var sb strings.Builder
	for _, block := range m.Content {
		if block.Type == BlockTypeThinking {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// FilterBlocks returns the blocks of the given type.
func (m *Message) FilterBlocks(blockType string) []ContentBlock {
	var filtered []ContentBlock
	for _, block := range m.Content {
		if block.Type == blockType {
			filtered = append(filtered, block)
		}
	}
	return filtered
}

//----------------------------------------------------------------
// Helper Functions - ContentBlock
//----------------------------------------------------------------

// NewTextBlock creates a text block.
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{
		Type: BlockTypeText,
		Text: text,
	}
}

// NewThinkingBlock creates a thinking block.
func NewThinkingBlock(text string) ContentBlock {
	return ContentBlock{
		Type: BlockTypeThinking,
		Text: text,
	}
}

// NewErrorBlock creates an error block.
func NewErrorBlock(text string) ContentBlock {
	return ContentBlock{
		Type: BlockTypeError,
		Text: text,
	}
}

//----------------------------------------------------------------
// Helper Functions - StreamChunk
//----------------------------------------------------------------

// NewTextChunk creates a text chunk.
func NewTextChunk(text string) StreamChunk {
	return StreamChunk{
		ContentBlocks: []ContentBlock{NewTextBlock(text)},
	}
}

// NewThinkingChunk creates a thinking chunk.
func NewThinkingChunk(text string) StreamChunk {
	return StreamChunk{
		ContentBlocks: []ContentBlock{NewThinkingBlock(text)},
	}
}

// NewToolCallChunk creates a chunk carrying tool calls.
func NewToolCallChunk(calls ...ToolCall) StreamChunk {
	return StreamChunk{
		ToolCalls: calls,
	}
}

// NewFinalChunk creates the closing chunk with usage statistics.
func NewFinalChunk(reason string, usage *LLMUsage) StreamChunk {
	return StreamChunk{
		IsFinal:      true,
		FinishReason: reason,
		Usage:        usage,
	}
}

// NewErrorChunk creates a chunk reporting a provider failure.
// When final is true the consumer must stop reading after this chunk.
func NewErrorChunk(msg string, err error, final bool) StreamChunk {
	return StreamChunk{
		Error:    msg,
		RawError: err,
		IsFinal:  final,
	}
}
