package config

import "time"

// Built-in defaults applied before the YAML file is merged in.
// Values here keep a zero-config deployment functional for local use.

// DefaultConfig returns a Config populated with built-in defaults and an
// empty provider registry.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			OutputRoot:            "./data/output",
			CacheRoot:             "./data/cache",
			MaxInlinePreviewBytes: 8 << 20, // 8 MiB
		},
		Generation: GenerationConfig{
			SingleChunkLimit:        50_000,
			ChunkLimit:              40_000,
			MaxSlides:               12,
			MaxRetries:              3,
			MaxSlideAttempts:        3,
			CallTimeout:             120 * time.Second,
			ImageTimeout:            180 * time.Second,
			EnableInfographics:      true,
			EnableDecorativeHeaders: true,
			EnableDiagrams:          true,
		},
		Defaults: Defaults{
			Provider:   "gemini",
			Model:      "gemini-2.5-flash",
			ImageStyle: "professional",
		},
		Providers: NewProviderRegistry(defaultProviders()),
	}
}

// defaultProviders returns the built-in provider set. Each entry is usable as
// soon as its API key env variable (or request header) is present.
func defaultProviders() map[string]*ProviderConfig {
	return map[string]*ProviderConfig{
		"gemini": {
			Type:      ProviderGemini,
			Model:     "gemini-2.5-flash",
			APIKeyEnv: "GEMINI_API_KEY",
			FallbackModels: []string{
				"gemini-2.5-flash",
				"gemini-2.0-flash",
				"gemini-2.0-flash-lite",
			},
			ImageModel:         "imagen-3.0-generate-002",
			ImageFallbackModel: "imagen-3.0-fast-generate-001",
			TTSModel:           "gemini-2.5-flash-preview-tts",
		},
		"openai": {
			Type:      ProviderOpenAI,
			Model:     "gpt-4o",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		"anthropic": {
			Type:      ProviderAnthropic,
			Model:     "claude-sonnet-4-5",
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
	}
}
