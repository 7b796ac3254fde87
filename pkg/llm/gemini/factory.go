package gemini

import (
	"context"

	"compass/pkg/config"
	"compass/pkg/llm"
)

// GeminiFactory handles creation of Gemini Clients
type GeminiFactory struct{}

// Create implements ProviderFactory
func (f *GeminiFactory) Create(cfg config.LLMConfig, apiKey string, sys *config.SystemConfig) (llm.LLMClient, error) {
	return NewGeminiClient(context.Background(), apiKey, cfg.Model, cfg.Options)
}

func init() {
	llm.RegisterProvider("gemini", &GeminiFactory{})
}
