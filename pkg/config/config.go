// Package config loads and validates docgen configuration.
//
// Configuration comes from a YAML file ({{.VAR}} env expansion applied before
// decoding) merged with built-in defaults. Provider configurations live in a
// thread-safe registry; everything else is plain immutable data read at
// startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config is the root configuration object assembled at startup.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Generation GenerationConfig `yaml:"generation"`
	Defaults   Defaults         `yaml:"defaults"`

	// Providers holds named LLM provider configurations.
	Providers *ProviderRegistry `yaml:"-"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig holds filesystem layout settings for artifacts and the cache.
type StorageConfig struct {
	// OutputRoot is the base directory for per-session artifacts:
	// <output_root>/<session_id>/{source,images,pdf,pptx,markdown}/
	OutputRoot string `yaml:"output_root"`

	// CacheRoot is the directory holding per-artifact cache manifest entries:
	// <cache_root>/<cache_key>.json
	CacheRoot string `yaml:"cache_root"`

	// MaxInlinePreviewBytes is the threshold above which a cache-hit response
	// omits the inline base64 preview. Overridable via
	// DOCGEN_MAX_INLINE_PREVIEW_BYTES.
	MaxInlinePreviewBytes int64 `yaml:"max_inline_preview_bytes"`
}

// GenerationConfig bounds the content pipeline.
type GenerationConfig struct {
	// SingleChunkLimit is the raw-content byte length above which
	// summarization splits into chunks.
	SingleChunkLimit int `yaml:"single_chunk_limit"`

	// ChunkLimit bounds individual summarization chunks (paragraph-aligned).
	ChunkLimit int `yaml:"chunk_limit"`

	// MaxSlides caps the slide structure requested from the LLM.
	MaxSlides int `yaml:"max_slides"`

	// MaxRetries bounds the generate_output ↔ validate_output retry pair.
	MaxRetries int `yaml:"max_retries"`

	// MaxSlideAttempts bounds slide-structure generation attempts in
	// enhance_content.
	MaxSlideAttempts int `yaml:"max_slide_attempts"`

	// CallTimeout is the per-call timeout for text LLM calls.
	CallTimeout time.Duration `yaml:"call_timeout"`

	// ImageTimeout is the hard ceiling for a single image synthesis call;
	// beyond it the fallback model is invoked.
	ImageTimeout time.Duration `yaml:"image_timeout"`

	// EnableInfographics, EnableDecorativeHeaders and EnableDiagrams are the
	// server-side defaults for the per-request image feature flags.
	EnableInfographics      bool `yaml:"enable_infographics"`
	EnableDecorativeHeaders bool `yaml:"enable_decorative_headers"`
	EnableDiagrams          bool `yaml:"enable_diagrams"`
}

// Defaults names the provider and models used when the request omits them.
type Defaults struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	ImageStyle string `yaml:"image_style"`
}

// fileConfig mirrors the YAML document shape for decoding.
type fileConfig struct {
	Server     ServerConfig               `yaml:"server"`
	Storage    StorageConfig              `yaml:"storage"`
	Generation GenerationConfig           `yaml:"generation"`
	Defaults   Defaults                   `yaml:"defaults"`
	Providers  map[string]*ProviderConfig `yaml:"llm_providers"`
}

// GetProvider resolves a provider configuration, falling back to the
// configured default provider when name is empty.
func (c *Config) GetProvider(name string) (*ProviderConfig, error) {
	if name == "" {
		name = c.Defaults.Provider
	}
	return c.Providers.Get(name)
}

// Validate checks cross-field consistency after load and merge.
func (c *Config) Validate() error {
	if c.Storage.OutputRoot == "" {
		return fmt.Errorf("storage.output_root is required")
	}
	if c.Storage.CacheRoot == "" {
		return fmt.Errorf("storage.cache_root is required")
	}
	if c.Generation.ChunkLimit > c.Generation.SingleChunkLimit {
		return fmt.Errorf("generation.chunk_limit (%d) must not exceed single_chunk_limit (%d)",
			c.Generation.ChunkLimit, c.Generation.SingleChunkLimit)
	}
	if c.Generation.MaxRetries < 0 {
		return fmt.Errorf("generation.max_retries must be >= 0")
	}
	if c.Defaults.Provider != "" && !c.Providers.Has(c.Defaults.Provider) {
		return fmt.Errorf("defaults.provider %q is not a configured provider", c.Defaults.Provider)
	}
	for name, p := range c.Providers.providers {
		if !p.Type.Valid() {
			return fmt.Errorf("llm_providers.%s: invalid type %q", name, p.Type)
		}
		if p.Model == "" {
			return fmt.Errorf("llm_providers.%s: model is required", name)
		}
	}
	return nil
}

// applyEnvOverrides applies environment-variable overrides that take priority
// over file values. Only variables that affect core behavior are read here.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCGEN_MAX_INLINE_PREVIEW_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			c.Storage.MaxInlinePreviewBytes = n
		}
	}
	if v := os.Getenv("DOCGEN_OUTPUT_ROOT"); v != "" {
		c.Storage.OutputRoot = v
	}
	if v := os.Getenv("DOCGEN_CACHE_ROOT"); v != "" {
		c.Storage.CacheRoot = v
	}
}

// ensureDirs creates the storage roots if they do not exist.
func (c *Config) ensureDirs() error {
	for _, dir := range []string{c.Storage.OutputRoot, c.Storage.CacheRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	return nil
}

// Initialize loads configuration from configDir/docgen.yaml, applies defaults
// and env overrides, validates, and prepares storage directories.
// A missing config file is not an error: defaults apply.
func Initialize(configDir string) (*Config, error) {
	cfg, err := Load(filepath.Join(configDir, "docgen.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	if err := cfg.ensureDirs(); err != nil {
		return nil, err
	}
	return cfg, nil
}
