package config

import "fmt"

// ProviderType identifies an LLM provider backend.
type ProviderType string

const (
	ProviderGemini    ProviderType = "gemini"
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
)

// NormalizeProviderType canonicalizes provider aliases.
// "google" is accepted as an alias for "gemini".
func NormalizeProviderType(s string) (ProviderType, error) {
	switch ProviderType(s) {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		return ProviderType(s), nil
	case "google":
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("unknown llm provider type: %q", s)
	}
}

// Valid reports whether the provider type is one of the known backends.
func (p ProviderType) Valid() bool {
	switch p {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		return true
	}
	return false
}
