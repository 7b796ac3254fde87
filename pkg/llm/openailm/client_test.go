package openailm

import (
	"testing"

	"compass/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cityTool struct{}

func (cityTool) Name() string                 { return "get_weather" }
func (cityTool) Description() string          { return "Get the current weather for a city." }
func (cityTool) RequiredParameters() []string { return []string{"city"} }
func (cityTool) Parameters() map[string]any {
	return map[string]any{"city": map[string]any{"type": "string"}}
}

func newTestClient(t *testing.T, options map[string]any) *Client {
	t.Helper()
	c, err := NewClient("openai", "sk-test", "gpt-4o-mini", "", options)
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresModel(t *testing.T) {
	_, err := NewClient("openai", "sk-test", "", "", nil)
	assert.Error(t, err)
}

func TestConvertMessages(t *testing.T) {
	c := newTestClient(t, nil)

	assistant := llm.NewAssistantMessage("")
	assistant.ToolCalls = []llm.ToolCall{{
		ID:       "call_1",
		Name:     "get_weather",
		Function: llm.FunctionCall{Name: "get_weather", Arguments: `{"city":"Paris"}`},
	}}
	toolMsg := llm.NewTextMessage(llm.RoleTool, "Weather in Paris: Sunny")
	toolMsg.ToolCallID = "call_1"

	items := c.convertMessages([]llm.Message{
		llm.NewSystemMessage("sys"),
		llm.NewUserMessage("weather in Paris?"),
		assistant,
		toolMsg,
	})
	require.Len(t, items, 4)

	require.NotNil(t, items[0].OfMessage)
	require.NotNil(t, items[1].OfMessage)
	require.NotNil(t, items[2].OfFunctionCall)
	assert.Equal(t, "call_1", items[2].OfFunctionCall.CallID)
	assert.Equal(t, "get_weather", items[2].OfFunctionCall.Name)
	assert.Equal(t, `{"city":"Paris"}`, items[2].OfFunctionCall.Arguments)
	require.NotNil(t, items[3].OfFunctionCallOutput)
	assert.Equal(t, "call_1", items[3].OfFunctionCallOutput.CallID)
}

func TestConvertTools(t *testing.T) {
	c := newTestClient(t, nil)

	assert.Nil(t, c.convertTools(nil))

	converted := c.convertTools([]llm.Tool{cityTool{}})
	require.Len(t, converted, 1)
	fn := converted[0].OfFunction
	require.NotNil(t, fn)
	assert.Equal(t, "get_weather", fn.Name)
	assert.Equal(t, "object", fn.Parameters["type"])
	assert.Equal(t, []string{"city"}, fn.Parameters["required"])
}

func TestBuildParams_Options(t *testing.T) {
	c := newTestClient(t, map[string]any{"temperature": 0.7, "max_tokens": float64(512)})

	params := c.buildParams([]llm.Message{llm.NewUserMessage("hi")}, nil)
	assert.Equal(t, 0.7, params.Temperature.Value)
	assert.Equal(t, int64(512), params.MaxOutputTokens.Value)
	assert.Empty(t, params.Tools)
}
