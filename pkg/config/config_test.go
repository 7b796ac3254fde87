package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadAppConfig(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Type)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Options["temperature"])
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.Equal(t, "basic", cfg.Search.SearchDepth)
	assert.True(t, cfg.Search.IncludeAnswer)
	assert.False(t, cfg.Search.IncludeRawContent)
}

func TestLoadAppConfig_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{
		"llm": {"type": "gemini", "model": "gemini-2.5-flash"},
		"search": {"search_depth": "advanced", "max_results": 5}
	}`)

	cfg, err := LoadAppConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Type)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, "advanced", cfg.Search.SearchDepth)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
	assert.Equal(t, "https://wttr.in", cfg.Weather.BaseURL)
}

func TestLoadAppConfig_InvalidJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", `{"llm":`)

	_, err := LoadAppConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadAppConfig_InvalidSearchDepth(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", `{"search": {"search_depth": "deep"}}`)

	_, err := LoadAppConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search_depth")
}

func TestLoadSystemConfig_FallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()

	missing := LoadSystemConfig(filepath.Join(dir, "system.json"))
	assert.Equal(t, DefaultSystemConfig(), missing)

	corrupt := LoadSystemConfig(writeFile(t, dir, "corrupt.json", "not json"))
	assert.Equal(t, DefaultSystemConfig(), corrupt)
}

func TestLoadSystemConfig_PartialOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), "system.json", `{"max_tool_rounds": 3, "log_level": "debug"}`)

	cfg := LoadSystemConfig(path)
	assert.Equal(t, 3, cfg.MaxToolRounds)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10000, cfg.WeatherTimeoutMs)
	assert.Equal(t, 20, cfg.HistoryMaxTurns)
}

func TestResolveCredentials(t *testing.T) {
	t.Run("both present", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("TAVILY_API_KEY", "tvly-test")

		creds, err := ResolveCredentials(DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, "sk-test", creds.ModelAPIKey)
		assert.Equal(t, "tvly-test", creds.SearchAPIKey)
	})

	t.Run("model key missing", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		t.Setenv("TAVILY_API_KEY", "tvly-test")

		_, err := ResolveCredentials(DefaultConfig())
		require.ErrorIs(t, err, ErrMissingCredential)
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})

	t.Run("search key missing", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("TAVILY_API_KEY", "")

		_, err := ResolveCredentials(DefaultConfig())
		require.ErrorIs(t, err, ErrMissingCredential)
		assert.Contains(t, err.Error(), "TAVILY_API_KEY")
	})

	t.Run("ollama needs no model key", func(t *testing.T) {
		t.Setenv("TAVILY_API_KEY", "tvly-test")
		cfg := DefaultConfig()
		cfg.LLM.Type = "ollama"

		creds, err := ResolveCredentials(cfg)
		require.NoError(t, err)
		assert.Empty(t, creds.ModelAPIKey)
	})

	t.Run("custom env names", func(t *testing.T) {
		t.Setenv("MY_MODEL_KEY", "m")
		t.Setenv("MY_SEARCH_KEY", "s")
		cfg := DefaultConfig()
		cfg.LLM.APIKeyEnv = "MY_MODEL_KEY"
		cfg.Search.APIKeyEnv = "MY_SEARCH_KEY"

		creds, err := ResolveCredentials(cfg)
		require.NoError(t, err)
		assert.Equal(t, "m", creds.ModelAPIKey)
		assert.Equal(t, "s", creds.SearchAPIKey)
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "COMPASS_TEST_FROM_FILE=file\nCOMPASS_TEST_PRESET=file\n")
	t.Setenv("COMPASS_TEST_PRESET", "env")
	t.Setenv("COMPASS_TEST_FROM_FILE", "")
	os.Unsetenv("COMPASS_TEST_FROM_FILE")

	require.NoError(t, LoadEnv(path))
	t.Cleanup(func() { os.Unsetenv("COMPASS_TEST_FROM_FILE") })

	assert.Equal(t, "file", os.Getenv("COMPASS_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("COMPASS_TEST_PRESET"))

	assert.NoError(t, LoadEnv(filepath.Join(dir, "missing.env")))
}
