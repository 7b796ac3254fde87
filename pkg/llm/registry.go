package llm

import (
	"compass/pkg/config"
)

// ProviderFactory builds an LLM client from the provider section of config.json.
type ProviderFactory interface {
	// Create builds a client. apiKey is empty for providers that need none.
	Create(cfg config.LLMConfig, apiKey string, sys *config.SystemConfig) (LLMClient, error)
}

// providerRegistry is filled by the provider packages' init functions.
var providerRegistry = make(map[string]ProviderFactory)

// RegisterProvider registers a provider factory under name.
func RegisterProvider(name string, factory ProviderFactory) {
	providerRegistry[name] = factory
}

// GetProviderFactory returns the factory registered under name.
func GetProviderFactory(name string) (ProviderFactory, bool) {
	f, ok := providerRegistry[name]
	return f, ok
}
