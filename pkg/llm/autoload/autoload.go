// Package autoload registers every built-in LLM provider.
package autoload

import (
	_ "compass/pkg/llm/gemini"
	_ "compass/pkg/llm/ollama"
	_ "compass/pkg/llm/openailm"
)
