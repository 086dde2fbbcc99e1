package config

import "errors"

// Sentinel errors for configuration lookups.
var (
	// ErrProviderNotFound indicates an LLM provider name that is not configured.
	ErrProviderNotFound = errors.New("llm provider not found")

	// ErrConfigNotFound indicates a missing configuration file.
	ErrConfigNotFound = errors.New("configuration file not found")
)
