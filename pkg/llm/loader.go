package llm

import (
	"fmt"
	"log/slog"

	"compass/pkg/config"
)

// NewFromConfig builds the configured LLM client.
// apiKey is the resolved model-provider credential.
func NewFromConfig(cfg config.LLMConfig, apiKey string, sys *config.SystemConfig) (LLMClient, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("missing 'llm.type' config")
	}

	factory, ok := GetProviderFactory(cfg.Type)
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}

	client, err := factory.Create(cfg, apiKey, sys)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Type, err)
	}

	client.SetDebug(sys.DebugChunks)
	slog.Info("LLM client initialized", "provider", client.Provider(), "model", cfg.Model)
	return client, nil
}
