package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultWeatherTimeout bounds one weather lookup.
const DefaultWeatherTimeout = 10 * time.Second

// WeatherTool looks up current conditions on a wttr.in compatible endpoint.
// It never returns an error: every failure is reported as text so the model
// can relay it.
type WeatherTool struct {
	baseURL    string
	httpClient *http.Client
}

// NewWeatherTool creates a weather tool. An empty baseURL selects https://wttr.in
// and a non-positive timeout selects DefaultWeatherTimeout.
func NewWeatherTool(baseURL string, timeout time.Duration) *WeatherTool {
	if baseURL == "" {
		baseURL = "https://wttr.in"
	}
	if timeout <= 0 {
		timeout = DefaultWeatherTimeout
	}
	return &WeatherTool{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (t *WeatherTool) Name() string {
	return "get_weather"
}

func (t *WeatherTool) Description() string {
	return "Get current weather for a city."
}

func (t *WeatherTool) Parameters() map[string]any {
	return map[string]any{
		"city": map[string]any{
			"type":        "string",
			"description": "Name of the city to get weather for",
		},
	}
}

func (t *WeatherTool) RequiredParameters() []string {
	return []string{"city"}
}

// wttrPayload is the subset of the wttr.in j1 format we read.
type wttrPayload struct {
	CurrentCondition []struct {
		TempC       string `json:"temp_C"`
		FeelsLikeC  string `json:"FeelsLikeC"`
		Humidity    string `json:"humidity"`
		WeatherDesc []struct {
			Value string `json:"value"`
		} `json:"weatherDesc"`
	} `json:"current_condition"`
}

func (t *WeatherTool) Execute(ctx context.Context, args map[string]any) (*ToolResult, error) {
	city, err := stringArg(args, "city")
	if err != nil {
		return textResult(fmt.Sprintf("Error getting weather: %v", err)), nil
	}
	return textResult(t.Lookup(ctx, city)), nil
}

// Lookup fetches the weather for city and formats it as one sentence.
func (t *WeatherTool) Lookup(ctx context.Context, city string) string {
	endpoint := fmt.Sprintf("%s/%s?format=j1", t.baseURL, url.PathEscape(city))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Sprintf("Error getting weather: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "compass-cli/1.0")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "Weather request failed", "city", city, "error", err)
		return fmt.Sprintf("Error getting weather: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.WarnContext(ctx, "Weather endpoint returned non-200", "city", city, "status", resp.StatusCode)
		return fmt.Sprintf("Could not fetch weather for %s", city)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error getting weather: %v", err)
	}

	var payload wttrPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Sprintf("Error getting weather: invalid response: %v", err)
	}
	if len(payload.CurrentCondition) == 0 {
		return "Error getting weather: response has no current conditions"
	}
	current := payload.CurrentCondition[0]
	if len(current.WeatherDesc) == 0 {
		return "Error getting weather: response has no weather description"
	}

	return fmt.Sprintf("Weather in %s: %s, Temperature: %s°C (feels like %s°C), Humidity: %s%%",
		city, current.WeatherDesc[0].Value, current.TempC, current.FeelsLikeC, current.Humidity)
}
