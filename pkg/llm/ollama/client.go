package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"compass/pkg/llm"

	jsoniter "github.com/json-iterator/go"
	"github.com/ollama/ollama/api"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OllamaClient Ollama API client
type OllamaClient struct {
	client       *api.Client
	model        string
	options      map[string]any
	debugEnabled bool
}

// SetDebug implements the llm.LLMClient interface
func (o *OllamaClient) SetDebug(enabled bool) {
	o.debugEnabled = enabled
}

// NewOllamaClient creates an Ollama client. An empty baseURL falls back to OLLAMA_HOST.
func NewOllamaClient(model string, baseURL string, options map[string]any) (*OllamaClient, error) {
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	// Local models can take a long time to load, so only the dial is bounded.
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	httpClient := &http.Client{
		Transport: &JSONFixingRoundTripper{Proxied: transport},
	}

	var client *api.Client
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		client = api.NewClient(u, httpClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
	}

	slog.Info("Ollama client initialized", "model", model, "base_url", baseURL)

	return &OllamaClient{
		client:  client,
		model:   model,
		options: options,
	}, nil
}

func (o *OllamaClient) Provider() string {
	return "ollama"
}

func (o *OllamaClient) StreamChat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (<-chan llm.StreamChunk, error) {
	apiMessages := o.convertMessages(messages)

	ollamaTools, err := convertTools(tools)
	if err != nil {
		return nil, err
	}

	chunkCh := make(chan llm.StreamChunk, 100)

	go func() {
		defer close(chunkCh)

		streamVal := true
		req := &api.ChatRequest{
			Model:    o.model,
			Messages: apiMessages,
			Options:  o.options,
			Tools:    ollamaTools,
			Stream:   &streamVal,
		}

		debugger := llm.NewStreamDebugger(ctx, o.Provider(), o.debugEnabled)
		defer debugger.Close()

		var thoughtsCount int
		chunkIdx := 0
		done := false

		err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			chunkIdx++
			debugger.WriteJSON(resp)

			if resp.Message.Thinking != "" {
				thoughtsCount++
				chunkCh <- llm.NewThinkingChunk(resp.Message.Thinking)
			}

			if resp.Message.Content != "" {
				chunkCh <- llm.NewTextChunk(resp.Message.Content)
			}

			if len(resp.Message.ToolCalls) > 0 {
				toolCalls := make([]llm.ToolCall, 0, len(resp.Message.ToolCalls))
				for i, tc := range resp.Message.ToolCalls {
					argsB, err := json.Marshal(tc.Function.Arguments)
					if err != nil {
						slog.Warn("Failed to marshal tool call arguments", "provider", "ollama", "error", err)
						argsB = []byte("{}")
					}
					id := tc.ID
					if id == "" {
						// Older servers omit call ids; the index keeps them unique within a round.
						id = fmt.Sprintf("call_%d_%d", chunkIdx, i)
					}
					toolCalls = append(toolCalls, llm.ToolCall{
						ID:   id,
						Name: tc.Function.Name,
						Function: llm.FunctionCall{
							Name:      tc.Function.Name,
							Arguments: string(argsB),
						},
					})
					slog.Debug("Tool call", "provider", "ollama", "name", tc.Function.Name, "args", string(argsB), "id", id)
				}
				chunkCh <- llm.NewToolCallChunk(toolCalls...)
			}

			if resp.Done {
				done = true
				usage := &llm.LLMUsage{
					PromptTokens:     resp.PromptEvalCount,
					CompletionTokens: resp.EvalCount,
					TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
					ThoughtsTokens:   thoughtsCount,
					StopReason:       resp.DoneReason,
				}

				if resp.DoneReason == llm.StopReasonLength {
					slog.Warn("Response truncated due to length", "provider", "ollama")
				}

				llm.LogUsage(ctx, o.model, usage)
				chunkCh <- llm.NewFinalChunk(resp.DoneReason, usage)
			}

			return nil
		})

		if err != nil {
			slog.ErrorContext(ctx, "Stream error", "provider", "ollama", "model", o.model, "chunks", chunkIdx, "error", err)
			chunkCh <- llm.NewErrorChunk(fmt.Sprintf("Stream error: %v", err), err, true)
			return
		}
		if !done {
			chunkCh <- llm.NewFinalChunk(llm.StopReasonStop, nil)
		}
	}()

	return chunkCh, nil
}

// convertTools goes through JSON because api.Tool models the schema with its own types.
func convertTools(tools []llm.Tool) ([]api.Tool, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	raw := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		raw = append(raw, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name(),
				"description": t.Description(),
				"parameters":  llm.ToolSchema(t),
			},
		})
	}

	rawB, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tools: %w", err)
	}
	var ollamaTools []api.Tool
	if err := json.Unmarshal(rawB, &ollamaTools); err != nil {
		return nil, fmt.Errorf("failed to convert tools: %w", err)
	}
	return ollamaTools, nil
}

// convertMessages converts messages to Ollama API format
func (o *OllamaClient) convertMessages(messages []llm.Message) []api.Message {
	ollamaMsgs := make([]api.Message, 0, len(messages))

	for _, m := range messages {
		var text strings.Builder
		for _, block := range m.Content {
			if block.Type == llm.BlockTypeText {
				text.WriteString(block.Text)
			}
		}

		msg := api.Message{
			Role:    m.Role,
			Content: text.String(),
		}

		if m.Role == llm.RoleAssistant && len(m.ToolCalls) > 0 {
			ollamaToolCalls := make([]api.ToolCall, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				var apiArgs api.ToolCallFunctionArguments
				if tc.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &apiArgs); err != nil {
						slog.Warn("Failed to unmarshal tool arguments for history", "provider", "ollama", "error", err)
					}
				}
				ollamaToolCalls = append(ollamaToolCalls, api.ToolCall{
					ID: tc.ID,
					Function: api.ToolCallFunction{
						Name:      tc.Function.Name,
						Arguments: apiArgs,
					},
				})
			}
			msg.ToolCalls = ollamaToolCalls
		}

		if m.Role == llm.RoleTool {
			msg.ToolCallID = m.ToolCallID
		}

		ollamaMsgs = append(ollamaMsgs, msg)
	}

	return ollamaMsgs
}
