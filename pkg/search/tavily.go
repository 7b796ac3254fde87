// Package search is a small client for the Tavily web search API.
package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Search depths accepted by the provider.
const (
	DepthBasic    = "basic"
	DepthAdvanced = "advanced"
)

// DefaultBaseURL is the public Tavily endpoint.
const DefaultBaseURL = "https://api.tavily.com"

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("search query is empty")

// Request is one search query and its options.
type Request struct {
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	SearchDepth       string `json:"search_depth"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

// Result is one ranked hit.
type Result struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	RawContent string  `json:"raw_content,omitempty"`
	Score      float64 `json:"score"`
}

// Response is the provider answer: ranked results plus an optional synthesized answer.
type Response struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

// APIError is a non-200 reply from the provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("search API error (%d): %s", e.StatusCode, e.Body)
}

// Client talks to the search API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Search runs req. Zero MaxResults selects 3 and an empty depth selects basic.
func (c *Client) Search(ctx context.Context, req Request) (*Response, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 3
	}
	switch req.SearchDepth {
	case "":
		req.SearchDepth = DepthBasic
	case DepthBasic, DepthAdvanced:
	default:
		return nil, fmt.Errorf("invalid search depth %q", req.SearchDepth)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Results) > req.MaxResults {
		out.Results = out.Results[:req.MaxResults]
	}
	return &out, nil
}
