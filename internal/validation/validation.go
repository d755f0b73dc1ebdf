package validation

import (
	"fmt"
	"strings"
)

const (
	// MaxPromptLength is the maximum allowed length for prompt text (100K characters)
	// This prevents excessive API costs and potential memory issues
	MaxPromptLength = 100000
)

// ValidateAPIKey validates the format of an Anthropic API key
func ValidateAPIKey(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("API key is required")
	}
	// Anthropic API keys start with "sk-ant-"; we stay lenient on length
	// beyond a basic floor in case the format changes.
	if len(apiKey) < 20 {
		return fmt.Errorf("API key appears to be invalid (too short)")
	}
	if !strings.HasPrefix(apiKey, "sk-ant-") {
		return fmt.Errorf("API key must start with 'sk-ant-'")
	}
	return nil
}

// ValidatePrompt validates prompt text before a remote call
func ValidatePrompt(text string) error {
	if text == "" {
		return fmt.Errorf("prompt cannot be empty")
	}
	if len(text) > MaxPromptLength {
		return fmt.Errorf("prompt exceeds maximum length of %d characters (got %d)", MaxPromptLength, len(text))
	}
	return nil
}
