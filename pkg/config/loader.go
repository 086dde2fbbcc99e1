package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path, expands {{.ENV}} template
// references, and merges the result over the built-in defaults.
// A missing file returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := ExpandEnv(data)

	var fc fileConfig
	if err := yaml.Unmarshal(expanded, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	mergeFileConfig(cfg, &fc)
	return cfg, nil
}

// mergeFileConfig overlays non-zero file values onto the defaults.
// Provider entries replace built-ins of the same name; unnamed built-ins are
// kept so a partial file doesn't lose the default provider set.
func mergeFileConfig(cfg *Config, fc *fileConfig) {
	if fc.Server.Port != "" {
		cfg.Server.Port = fc.Server.Port
	}
	if fc.Server.ShutdownTimeout > 0 {
		cfg.Server.ShutdownTimeout = fc.Server.ShutdownTimeout
	}

	if fc.Storage.OutputRoot != "" {
		cfg.Storage.OutputRoot = fc.Storage.OutputRoot
	}
	if fc.Storage.CacheRoot != "" {
		cfg.Storage.CacheRoot = fc.Storage.CacheRoot
	}
	if fc.Storage.MaxInlinePreviewBytes > 0 {
		cfg.Storage.MaxInlinePreviewBytes = fc.Storage.MaxInlinePreviewBytes
	}

	g := &cfg.Generation
	fg := fc.Generation
	if fg.SingleChunkLimit > 0 {
		g.SingleChunkLimit = fg.SingleChunkLimit
	}
	if fg.ChunkLimit > 0 {
		g.ChunkLimit = fg.ChunkLimit
	}
	if fg.MaxSlides > 0 {
		g.MaxSlides = fg.MaxSlides
	}
	if fg.MaxRetries > 0 {
		g.MaxRetries = fg.MaxRetries
	}
	if fg.MaxSlideAttempts > 0 {
		g.MaxSlideAttempts = fg.MaxSlideAttempts
	}
	if fg.CallTimeout > 0 {
		g.CallTimeout = fg.CallTimeout
	}
	if fg.ImageTimeout > 0 {
		g.ImageTimeout = fg.ImageTimeout
	}

	if fc.Defaults.Provider != "" {
		cfg.Defaults.Provider = fc.Defaults.Provider
	}
	if fc.Defaults.Model != "" {
		cfg.Defaults.Model = fc.Defaults.Model
	}
	if fc.Defaults.ImageStyle != "" {
		cfg.Defaults.ImageStyle = fc.Defaults.ImageStyle
	}

	if len(fc.Providers) > 0 {
		merged := defaultProviders()
		for name, p := range fc.Providers {
			merged[name] = p
		}
		cfg.Providers = NewProviderRegistry(merged)
	}
}
