package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"compass/pkg/config"
	"compass/pkg/search"
)

// Searcher is the search provider used by WebSearchTool.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// WebSearchTool answers questions from the web through a Searcher.
type WebSearchTool struct {
	searcher Searcher
	opts     config.SearchConfig
}

// NewWebSearchTool creates the search tool with the configured result count and depth.
func NewWebSearchTool(s Searcher, opts config.SearchConfig) *WebSearchTool {
	return &WebSearchTool{searcher: s, opts: opts}
}

func (t *WebSearchTool) Name() string {
	return "web_search"
}

func (t *WebSearchTool) Description() string {
	return "A search engine optimized for comprehensive, accurate, and trusted results. " +
		"Useful for when you need to answer questions about current events. Input should be a search query."
}

func (t *WebSearchTool) Parameters() map[string]any {
	return map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "search query to look up",
		},
	}
}

func (t *WebSearchTool) RequiredParameters() []string {
	return []string{"query"}
}

func (t *WebSearchTool) Execute(ctx context.Context, args map[string]any) (*ToolResult, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return textResult(fmt.Sprintf("Error searching the web: %v", err)), nil
	}

	resp, err := t.searcher.Search(ctx, search.Request{
		Query:             query,
		MaxResults:        t.opts.MaxResults,
		SearchDepth:       t.opts.SearchDepth,
		IncludeAnswer:     t.opts.IncludeAnswer,
		IncludeRawContent: t.opts.IncludeRawContent,
	})
	if err != nil {
		slog.WarnContext(ctx, "Web search failed", "query", query, "error", err)
		return textResult(fmt.Sprintf("Error searching the web: %v", err)), nil
	}

	return &ToolResult{
		Content: []ContentBlock{{Type: "text", Text: formatSearchResponse(resp)}},
		Details: map[string]any{"results": len(resp.Results)},
	}, nil
}

func formatSearchResponse(resp *search.Response) string {
	var sb strings.Builder
	if resp.Answer != "" {
		fmt.Fprintf(&sb, "Answer: %s\n\n", resp.Answer)
	}
	if len(resp.Results) == 0 {
		sb.WriteString("No results found.")
		return sb.String()
	}
	for i, r := range resp.Results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%d. %s (%s)\n%s", i+1, r.Title, r.URL, r.Content)
		if r.RawContent != "" {
			fmt.Fprintf(&sb, "\n%s", r.RawContent)
		}
	}
	return sb.String()
}
