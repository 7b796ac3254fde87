package openailm

import (
	"compass/pkg/config"
	"compass/pkg/llm"
)

// OpenAIFactory handles creation of OpenAI Clients
type OpenAIFactory struct{}

// Create implements ProviderFactory
func (f *OpenAIFactory) Create(cfg config.LLMConfig, apiKey string, sys *config.SystemConfig) (llm.LLMClient, error) {
	return NewClient("openai", apiKey, cfg.Model, cfg.BaseURL, cfg.Options)
}

func init() {
	llm.RegisterProvider("openai", &OpenAIFactory{})
}
