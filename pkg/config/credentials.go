package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/subosito/gotenv"
)

// ErrMissingCredential is returned when a required API key is not set.
var ErrMissingCredential = errors.New("missing credential")

// defaultAPIKeyEnv maps provider types to the env var holding their key.
// Providers absent from the map need no key.
var defaultAPIKeyEnv = map[string]string{
	"openai": "OPENAI_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// Credentials are the secrets resolved once at startup.
type Credentials struct {
	ModelAPIKey  string
	SearchAPIKey string
}

// LoadEnv loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if err := gotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// KeyEnv returns the env var name for the provider's key, or "" when
// the provider needs none.
func (c LLMConfig) KeyEnv() string {
	if c.APIKeyEnv != "" {
		return c.APIKeyEnv
	}
	return defaultAPIKeyEnv[c.Type]
}

// KeyEnv returns the env var name holding the search key.
func (c SearchConfig) KeyEnv() string {
	if c.APIKeyEnv != "" {
		return c.APIKeyEnv
	}
	return "TAVILY_API_KEY"
}

// ResolveCredentials reads the model and search keys from the environment.
// A missing key yields an error wrapping ErrMissingCredential naming the variable.
func ResolveCredentials(cfg *Config) (*Credentials, error) {
	creds := &Credentials{}

	if env := cfg.LLM.KeyEnv(); env != "" {
		creds.ModelAPIKey = os.Getenv(env)
		if creds.ModelAPIKey == "" {
			return nil, fmt.Errorf("%w: %s is not set", ErrMissingCredential, env)
		}
	}

	env := cfg.Search.KeyEnv()
	creds.SearchAPIKey = os.Getenv(env)
	if creds.SearchAPIKey == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrMissingCredential, env)
	}

	return creds, nil
}
