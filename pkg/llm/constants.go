package llm

// StopReason constants define normalized reasons for LLM generation termination.
// All providers must normalize their native stop reasons to these values.
const (
	StopReasonStop      = "stop"       // Normal completion
	StopReasonLength    = "length"     // Output truncated due to token limit
	StopReasonToolCalls = "tool_calls" // Model paused to request tool execution
)

// ContentBlock Type constants define the supported content block formats
// used throughout the message pipeline.
const (
	BlockTypeText     = "text"     // Plain text content
	BlockTypeThinking = "thinking" // Internal reasoning/chain-of-thought
	BlockTypeError    = "error"    // Error message produced by the provider
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

type contextKey string

// DebugDirContextKey carries the per-turn debug id. Stream debuggers nest their
// chunk logs under it and the log handler prints it next to the level.
const DebugDirContextKey contextKey = "llm_debug_dir"
