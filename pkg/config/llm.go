package config

import (
	"fmt"
	"sync"
)

// ProviderConfig defines LLM provider configuration.
type ProviderConfig struct {
	// Provider type (required)
	Type ProviderType `yaml:"type" validate:"required"`

	// Default model name (required)
	Model string `yaml:"model" validate:"required"`

	// Environment variable name holding the API key. Request headers take
	// priority; this is the fallback source.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// Ordered fallback models tried after the caller's model on transient
	// overload errors. Only consulted for Gemini.
	FallbackModels []string `yaml:"fallback_models,omitempty"`

	// Model used for image synthesis calls routed to this provider.
	ImageModel string `yaml:"image_model,omitempty"`

	// Faster model used when an image generation times out and fallback
	// is allowed.
	ImageFallbackModel string `yaml:"image_fallback_model,omitempty"`

	// Model used for speech synthesis calls routed to this provider.
	TTSModel string `yaml:"tts_model,omitempty"`

	// Optional custom endpoint/base URL
	BaseURL string `yaml:"base_url,omitempty"`
}

// ProviderRegistry stores LLM provider configurations in memory with
// thread-safe access.
type ProviderRegistry struct {
	providers map[string]*ProviderConfig
	mu        sync.RWMutex
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry(providers map[string]*ProviderConfig) *ProviderRegistry {
	// Defensive copy to prevent external mutation
	copied := make(map[string]*ProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &ProviderRegistry{providers: copied}
}

// Get retrieves a provider configuration by name (thread-safe).
func (r *ProviderRegistry) Get(name string) (*ProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return provider, nil
}

// Has checks if a provider exists in the registry (thread-safe).
func (r *ProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.providers[name]
	return exists
}

// Names returns all configured provider names (thread-safe).
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for k := range r.providers {
		names = append(names, k)
	}
	return names
}

// Len returns the number of providers in the registry (thread-safe).
func (r *ProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
