package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"compass/pkg/llm"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/genai"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GeminiClient Google Gemini API client
type GeminiClient struct {
	client       *genai.Client
	model        string
	useThought   bool
	options      map[string]any
	debugEnabled bool
}

// SetDebug implements the llm.LLMClient interface
func (g *GeminiClient) SetDebug(enabled bool) {
	g.debugEnabled = enabled
}

// NewGeminiClient creates a Gemini client with a single model and API key
func NewGeminiClient(ctx context.Context, apiKey string, model string, options map[string]any) (*GeminiClient, error) {
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	useThought := false
	if effort, ok := options["thinking_effort"].(string); ok && effort != "" && effort != "off" {
		useThought = true
	}

	return &GeminiClient{
		client:     client,
		model:      model,
		useThought: useThought,
		options:    options,
	}, nil
}

func (g *GeminiClient) Provider() string {
	return "gemini"
}

// formatModality formats ModalityTokenCount array for logging
func formatModality(details []*genai.ModalityTokenCount) string {
	if len(details) == 0 {
		return "0"
	}
	res := make([]string, 0, len(details))
	for _, d := range details {
		res = append(res, fmt.Sprintf("%v: %d", d.Modality, d.TokenCount))
	}
	return strings.Join(res, " | ")
}

// StreamChat implements llm.LLMClient.StreamChat
func (g *GeminiClient) StreamChat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (<-chan llm.StreamChunk, error) {
	contents, systemInstruction := convertMessages(messages)
	genConfig := g.buildConfig(systemInstruction, tools)

	chunkCh := make(chan llm.StreamChunk, 100)

	go func() {
		defer close(chunkCh)

		debugger := llm.NewStreamDebugger(ctx, g.Provider(), g.debugEnabled)
		defer debugger.Close()

		var lastUsage *llm.LLMUsage
		finishReason := ""
		callIdx := 0

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, genConfig) {
			if err != nil {
				slog.ErrorContext(ctx, "Stream error", "provider", "gemini", "model", g.model, "error", err)
				chunkCh <- llm.NewErrorChunk(fmt.Sprintf("Stream error: %v", err), err, true)
				return
			}
			if resp == nil {
				continue
			}
			debugger.WriteJSON(resp)

			if u := resp.UsageMetadata; u != nil {
				lastUsage = &llm.LLMUsage{
					PromptTokens:     int(u.PromptTokenCount),
					CompletionTokens: int(u.CandidatesTokenCount),
					TotalTokens:      int(u.TotalTokenCount),
					ThoughtsTokens:   int(u.ThoughtsTokenCount),
					CachedTokens:     int(u.CachedContentTokenCount),
				}
				slog.DebugContext(ctx, "Token details", "provider", "gemini",
					"prompt", formatModality(u.PromptTokensDetails),
					"completion", formatModality(u.CandidatesTokensDetails))
			}

			for _, candidate := range resp.Candidates {
				if candidate.FinishReason != "" {
					finishReason = normalizeStopReason(candidate.FinishReason)
				}
				if candidate.Content == nil {
					continue
				}

				var blocks []llm.ContentBlock
				var toolCalls []llm.ToolCall
				for _, part := range candidate.Content.Parts {
					if part.Text != "" {
						if part.Thought {
							blocks = append(blocks, llm.NewThinkingBlock(part.Text))
						} else {
							blocks = append(blocks, llm.NewTextBlock(part.Text))
						}
					}

					if fc := part.FunctionCall; fc != nil {
						argsB, err := json.Marshal(fc.Args)
						if err != nil {
							argsB = []byte("{}")
						}
						id := fc.ID
						if id == "" {
							// Gemini stream ids are sometimes missing.
							callIdx++
							id = fmt.Sprintf("%s_%d", fc.Name, callIdx)
						}
						toolCalls = append(toolCalls, llm.ToolCall{
							ID:   id,
							Name: fc.Name,
							Function: llm.FunctionCall{
								Name:      fc.Name,
								Arguments: string(argsB),
							},
							// Keep the original call so thought signatures survive the next round.
							Meta: map[string]any{
								"gemini_function_call": fc,
							},
						})
						slog.DebugContext(ctx, "Tool call", "provider", "gemini", "name", fc.Name, "args", string(argsB))
					}
				}

				if len(blocks) > 0 || len(toolCalls) > 0 {
					chunkCh <- llm.StreamChunk{
						ContentBlocks: blocks,
						ToolCalls:     toolCalls,
					}
				}
				if len(toolCalls) > 0 {
					finishReason = llm.StopReasonToolCalls
				}
			}
		}

		if finishReason == "" {
			finishReason = llm.StopReasonStop
		}
		if lastUsage != nil {
			lastUsage.StopReason = finishReason
		}
		llm.LogUsage(ctx, g.model, lastUsage)
		chunkCh <- llm.NewFinalChunk(finishReason, lastUsage)
	}()

	return chunkCh, nil
}

func (g *GeminiClient) buildConfig(systemInstruction *genai.Content, tools []llm.Tool) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Tools:             convertTools(tools),
	}

	if g.useThought {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
		}
	}

	if t, ok := g.options["temperature"].(float64); ok {
		cfg.Temperature = genai.Ptr(float32(t))
	}
	if p, ok := g.options["top_p"].(float64); ok {
		cfg.TopP = genai.Ptr(float32(p))
	}
	if maxTok, ok := g.options["max_tokens"].(float64); ok {
		cfg.MaxOutputTokens = int32(maxTok)
	}

	return cfg
}

func convertTools(tools []llm.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	fds := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		fds = append(fds, &genai.FunctionDeclaration{
			Name:                 t.Name(),
			Description:          t.Description(),
			ParametersJsonSchema: llm.ToolSchema(t),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: fds}}
}

// convertMessages converts message list to GenAI format
func convertMessages(messages []llm.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var systemInstruction *genai.Content
	lastWasTool := false

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			if text := msg.GetTextContent(); text != "" {
				systemInstruction = genai.NewContentFromText(text, genai.RoleUser)
			}
			continue

		case llm.RoleTool:
			// Tool results travel in the user role, keyed by function name. All
			// results of one round share a single content, one part per call.
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     msg.ToolName,
					Response: map[string]any{"result": msg.GetTextContent()},
				},
			}
			if lastWasTool {
				last := contents[len(contents)-1]
				last.Parts = append(last.Parts, part)
			} else {
				contents = append(contents, &genai.Content{
					Role:  string(genai.RoleUser),
					Parts: []*genai.Part{part},
				})
			}
			lastWasTool = true
			continue
		}
		lastWasTool = false

		role := genai.RoleUser
		if msg.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}

		var parts []*genai.Part
		for _, tc := range msg.ToolCalls {
			if original, ok := tc.Meta["gemini_function_call"].(*genai.FunctionCall); ok {
				parts = append(parts, &genai.Part{FunctionCall: original})
				continue
			}

			var args map[string]any
			if tc.Function.Arguments != "" {
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
			}
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   tc.ID,
					Name: tc.Function.Name,
					Args: args,
				},
			})
		}

		for _, block := range msg.Content {
			if block.Text == "" {
				continue
			}
			switch block.Type {
			case llm.BlockTypeText:
				parts = append(parts, &genai.Part{Text: block.Text})
			case llm.BlockTypeThinking:
				parts = append(parts, &genai.Part{Text: block.Text, Thought: true})
			}
		}

		if len(parts) > 0 {
			contents = append(contents, &genai.Content{
				Role:  string(role),
				Parts: parts,
			})
		}
	}

	return contents, systemInstruction
}

func normalizeStopReason(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonStop:
		return llm.StopReasonStop
	case genai.FinishReasonMaxTokens:
		return llm.StopReasonLength
	default:
		return strings.ToLower(string(reason))
	}
}
