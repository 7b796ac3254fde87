package openailm

import (
	"context"
	"fmt"
	"log/slog"

	"compass/pkg/llm"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

// Client is a wrapper around the official OpenAI Go SDK using the Responses API.
type Client struct {
	client       *openai.Client
	provider     string
	model        string
	debugEnabled bool
	options      map[string]any
}

// NewClient creates a new OpenAI client
func NewClient(provider string, apiKey string, model string, baseURL string, options map[string]any) (*Client, error) {
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)

	return &Client{
		client:   &client,
		provider: provider,
		model:    model,
		options:  options,
	}, nil
}

func (c *Client) Provider() string {
	return c.provider
}

func (c *Client) SetDebug(enabled bool) {
	c.debugEnabled = enabled
}

func (c *Client) StreamChat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (<-chan llm.StreamChunk, error) {
	chunkCh := make(chan llm.StreamChunk, 100)

	params := c.buildParams(messages, tools)

	go func() {
		defer close(chunkCh)

		stream := c.client.Responses.NewStreaming(ctx, params)
		defer stream.Close()

		debugger := llm.NewStreamDebugger(ctx, c.provider, c.debugEnabled)
		defer debugger.Close()

		var lastUsage *llm.LLMUsage
		lastFinishReason := ""
		failed := false
		var toolCalls []llm.ToolCall

		for stream.Next() {
			event := stream.Current()
			debugger.WriteString(event.RawJSON())

			switch variant := event.AsAny().(type) {
			case responses.ResponseTextDeltaEvent:
				chunkCh <- llm.NewTextChunk(variant.Delta)

			case responses.ResponseReasoningTextDeltaEvent:
				chunkCh <- llm.NewThinkingChunk(variant.Delta)

			case responses.ResponseReasoningSummaryTextDeltaEvent:
				chunkCh <- llm.NewThinkingChunk(variant.Delta)

			case responses.ResponseOutputItemDoneEvent:
				// Function calls are complete (name, call id, arguments) once their item is done.
				if variant.Item.Type == "function_call" {
					toolCalls = append(toolCalls, llm.ToolCall{
						ID:   variant.Item.CallID,
						Name: variant.Item.Name,
						Function: llm.FunctionCall{
							Name:      variant.Item.Name,
							Arguments: variant.Item.Arguments,
						},
					})
				}

			case responses.ResponseCompletedEvent:
				lastFinishReason = llm.StopReasonStop
				usage := variant.Response.Usage
				if usage.TotalTokens > 0 {
					lastUsage = &llm.LLMUsage{
						PromptTokens:     int(usage.InputTokens),
						CompletionTokens: int(usage.OutputTokens),
						TotalTokens:      int(usage.TotalTokens),
						CachedTokens:     int(usage.InputTokensDetails.CachedTokens),
						ThoughtsTokens:   int(usage.OutputTokensDetails.ReasoningTokens),
					}
				}

			case responses.ResponseIncompleteEvent:
				lastFinishReason = llm.StopReasonLength

			case responses.ResponseFailedEvent:
				failed = true
				msg := "API response failed"
				if variant.Response.Error.Message != "" {
					msg = fmt.Sprintf("API response failed: %s", variant.Response.Error.Message)
				}
				chunkCh <- llm.NewErrorChunk(msg, nil, true)

			case responses.ResponseErrorEvent:
				failed = true
				chunkCh <- llm.NewErrorChunk(fmt.Sprintf("API error: %s", variant.Message), nil, true)
			}

			if failed {
				return
			}
		}

		if err := stream.Err(); err != nil {
			slog.ErrorContext(ctx, "Stream error", "provider", c.provider, "model", c.model, "error", err)
			chunkCh <- llm.NewErrorChunk(fmt.Sprintf("Stream error: %v", err), err, true)
			return
		}

		if len(toolCalls) > 0 {
			chunkCh <- llm.NewToolCallChunk(toolCalls...)
			lastFinishReason = llm.StopReasonToolCalls
		}

		if lastFinishReason == "" {
			lastFinishReason = llm.StopReasonStop
		}
		if lastUsage != nil {
			lastUsage.StopReason = lastFinishReason
		}
		llm.LogUsage(ctx, c.model, lastUsage)
		chunkCh <- llm.NewFinalChunk(lastFinishReason, lastUsage)
	}()

	return chunkCh, nil
}

// buildParams converts the transcript, tools and options into request parameters.
func (c *Client) buildParams(messages []llm.Message, tools []llm.Tool) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: c.convertMessages(messages),
		},
	}

	if effortStr, ok := c.options["thinking_effort"].(string); ok && effortStr != "" && effortStr != "off" {
		var effort shared.ReasoningEffort
		switch effortStr {
		case "low":
			effort = shared.ReasoningEffortLow
		case "high":
			effort = shared.ReasoningEffortHigh
		default:
			effort = shared.ReasoningEffortMedium
		}
		params.Reasoning = shared.ReasoningParam{
			Effort: effort,
		}
	}

	if t, ok := c.options["temperature"].(float64); ok {
		params.Temperature = openai.Float(t)
	}

	if p, ok := c.options["top_p"].(float64); ok {
		params.TopP = openai.Float(p)
	}

	if maxTok, ok := c.options["max_tokens"].(float64); ok {
		params.MaxOutputTokens = openai.Int(int64(maxTok))
	}

	if converted := c.convertTools(tools); len(converted) > 0 {
		params.Tools = converted
	}

	return params
}

func (c *Client) convertMessages(messages []llm.Message) []responses.ResponseInputItemUnionParam {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			items = append(items, responses.ResponseInputItemParamOfMessage(
				m.GetTextContent(),
				responses.EasyInputMessageRoleSystem,
			))
		case llm.RoleUser:
			items = append(items, responses.ResponseInputItemParamOfMessage(
				m.GetTextContent(),
				responses.EasyInputMessageRoleUser,
			))
		case llm.RoleAssistant:
			if text := m.GetTextContent(); text != "" {
				items = append(items, responses.ResponseInputItemParamOfMessage(
					text,
					responses.EasyInputMessageRoleAssistant,
				))
			}
			for _, tc := range m.ToolCalls {
				items = append(items, responses.ResponseInputItemParamOfFunctionCall(
					tc.Function.Arguments,
					tc.ID,
					tc.Name,
				))
			}
		case llm.RoleTool:
			items = append(items, responses.ResponseInputItemParamOfFunctionCallOutput(
				m.ToolCallID,
				m.GetTextContent(),
			))
		}
	}

	return items
}

func (c *Client) convertTools(tools []llm.Tool) []responses.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	converted := make([]responses.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		converted = append(converted, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name(),
				Description: openai.String(t.Description()),
				Parameters:  llm.ToolSchema(t),
				Strict:      openai.Bool(false),
			},
		})
	}
	return converted
}
