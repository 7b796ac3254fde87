package config

import (
	"errors"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultSystemPrompt is the assistant persona used when config.json does not set one.
const DefaultSystemPrompt = `You are a helpful AI assistant with access to tools for:
- Getting current date and time
- Checking weather for any city
- Searching the web for information

Use these tools when needed to provide accurate and helpful responses.
Be conversational and remember the context from previous messages.`

// Config defines the application configuration stored in config.json:
// which model to talk to, what persona it has, and how the tools reach
// their providers.
type Config struct {
	// LLM selects and tunes the model provider.
	LLM LLMConfig `json:"llm"`
	// SystemPrompt is the instruction sent as the first message of every request.
	SystemPrompt string `json:"system_prompt"`
	// Search configures the web search provider.
	Search SearchConfig `json:"search"`
	// Weather configures the weather endpoint.
	Weather WeatherConfig `json:"weather"`
}

// LLMConfig describes one model provider.
type LLMConfig struct {
	// Type is the registered provider name: "openai", "gemini" or "ollama".
	Type string `json:"type"`
	// Model is the provider specific model identifier.
	Model string `json:"model"`
	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty"`
	// APIKeyEnv names the environment variable holding the provider key.
	// Empty selects the provider default (see KeyEnv).
	APIKeyEnv string `json:"api_key_env,omitempty"`
	// Options holds provider options such as "temperature" or "thinking_effort".
	Options map[string]any `json:"options,omitempty"`
}

// SearchConfig configures the web search tool.
type SearchConfig struct {
	BaseURL           string `json:"base_url,omitempty"`
	APIKeyEnv         string `json:"api_key_env,omitempty"`
	MaxResults        int    `json:"max_results"`
	SearchDepth       string `json:"search_depth"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

// WeatherConfig configures the weather tool.
type WeatherConfig struct {
	BaseURL string `json:"base_url,omitempty"`
}

// DefaultConfig returns the configuration used when config.json is absent.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Type:  "openai",
			Model: "gpt-4o-mini",
			Options: map[string]any{
				"temperature": 0.7,
			},
		},
		SystemPrompt: DefaultSystemPrompt,
		Search: SearchConfig{
			BaseURL:       "https://api.tavily.com",
			APIKeyEnv:     "TAVILY_API_KEY",
			MaxResults:    3,
			SearchDepth:   "basic",
			IncludeAnswer: true,
		},
		Weather: WeatherConfig{
			BaseURL: "https://wttr.in",
		},
	}
}

// Validate ensures the configuration contains all mandatory fields.
func (c *Config) Validate() error {
	if c.LLM.Type == "" {
		return fmt.Errorf("mandatory 'llm.type' configuration is missing")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("mandatory 'llm.model' configuration is missing")
	}
	switch c.Search.SearchDepth {
	case "basic", "advanced":
	default:
		return fmt.Errorf("invalid 'search.search_depth' %q: must be basic or advanced", c.Search.SearchDepth)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("invalid 'search.max_results' %d: must be positive", c.Search.MaxResults)
	}
	return nil
}

// SystemConfig defines engine-level technical parameters, stored in system.json.
type SystemConfig struct {
	// LLMTimeoutMs bounds one whole turn against the model. 0 disables the bound.
	LLMTimeoutMs int `json:"llm_timeout_ms"`
	// WeatherTimeoutMs bounds a single weather request.
	WeatherTimeoutMs int `json:"weather_timeout_ms"`
	// MaxToolRounds caps how many tool-calling rounds one turn may take.
	MaxToolRounds int `json:"max_tool_rounds"`
	// HistoryMaxTurns is the size of the sliding conversation window.
	HistoryMaxTurns int `json:"history_max_turns"`
	// HistoryPreviewChars is the per-turn length shown by the history command.
	HistoryPreviewChars int `json:"history_preview_chars"`
	// ShowToolTrace prints each tool invocation while a turn runs.
	ShowToolTrace bool `json:"show_tool_trace"`
	// DebugChunks dumps every raw LLM chunk under ./debug.
	DebugChunks bool `json:"debug_chunks"`
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `json:"log_level"`
	// EnableTools toggles tool calling. When false the model answers unaided.
	EnableTools bool `json:"enable_tools"`
}

// DefaultMaxToolRounds is used when max_tool_rounds is unset or not positive.
const DefaultMaxToolRounds = 8

// DefaultSystemConfig returns the engine defaults used when system.json is
// missing or corrupt.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		LLMTimeoutMs:        0,
		WeatherTimeoutMs:    10000,
		MaxToolRounds:       DefaultMaxToolRounds,
		HistoryMaxTurns:     20,
		HistoryPreviewChars: 100,
		ShowToolTrace:       true,
		LogLevel:            "warn",
		EnableTools:         true,
	}
}

// Load reads the application config at appPath and the system config at sysPath.
// A missing app config falls back to DefaultConfig; a present but unreadable or
// invalid one is an error. The system config always falls back to defaults.
func Load(appPath, sysPath string) (*Config, *SystemConfig, error) {
	cfg, err := LoadAppConfig(appPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, LoadSystemConfig(sysPath), nil
}

// LoadAppConfig reads config.json, overlaying it on DefaultConfig.
func LoadAppConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	file, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadSystemConfig attempts to load system settings, returning defaults if it fails.
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	if err := json.Unmarshal(file, cfg); err != nil {
		return DefaultSystemConfig()
	}

	return cfg
}
