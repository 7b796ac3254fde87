package tools

import (
	"compass/pkg/api"
	"fmt"
	"strings"
)

// stringArg extracts a required, non-blank string argument.
func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing string parameter '%s'", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter '%s' must be a string, got %T", key, raw)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("parameter '%s' must not be empty", key)
	}
	return s, nil
}

// textResult wraps s as a single text block result.
func textResult(s string) *ToolResult {
	return api.NewTextResult(s)
}
