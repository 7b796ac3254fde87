package ollama

import (
	"compass/pkg/config"
	"compass/pkg/llm"
)

// OllamaFactory handles creation of Ollama Clients
type OllamaFactory struct{}

// Create implements ProviderFactory. Ollama needs no API key.
func (f *OllamaFactory) Create(cfg config.LLMConfig, apiKey string, sys *config.SystemConfig) (llm.LLMClient, error) {
	return NewOllamaClient(cfg.Model, cfg.BaseURL, cfg.Options)
}

func init() {
	llm.RegisterProvider("ollama", &OllamaFactory{})
}
