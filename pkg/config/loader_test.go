package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "docgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(8<<20), cfg.Storage.MaxInlinePreviewBytes)
	assert.Equal(t, 50_000, cfg.Generation.SingleChunkLimit)
	assert.True(t, cfg.Providers.Has("gemini"))
	assert.True(t, cfg.Providers.Has("openai"))
	assert.True(t, cfg.Providers.Has("anthropic"))
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
generation:
  single_chunk_limit: 60000
  chunk_limit: 30000
defaults:
  provider: openai
  model: gpt-4o-mini
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 60_000, cfg.Generation.SingleChunkLimit)
	assert.Equal(t, 30_000, cfg.Generation.ChunkLimit)
	assert.Equal(t, "openai", cfg.Defaults.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Defaults.Model)
	// Untouched defaults survive the merge
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Providers.Has("gemini"))
}

func TestLoadCustomProviderReplacesBuiltin(t *testing.T) {
	path := writeConfig(t, `
llm_providers:
  gemini:
    type: gemini
    model: gemini-exp
    api_key_env: MY_KEY
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	p, err := cfg.Providers.Get("gemini")
	require.NoError(t, err)
	assert.Equal(t, "gemini-exp", p.Model)
	assert.Equal(t, "MY_KEY", p.APIKeyEnv)
	// Other built-ins preserved
	assert.True(t, cfg.Providers.Has("openai"))
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("DOCGEN_TEST_VALUE", "expanded")

	out := ExpandEnv([]byte("key: {{.DOCGEN_TEST_VALUE}}"))
	assert.Equal(t, "key: expanded", string(out))

	// Literal $ untouched
	out = ExpandEnv([]byte(`pattern: "^secret.*$"`))
	assert.Equal(t, `pattern: "^secret.*$"`, string(out))

	// Missing variable expands to empty
	out = ExpandEnv([]byte("key: {{.DOCGEN_TEST_MISSING_VAR}}"))
	assert.Equal(t, "key: ", string(out))
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("chunk limit exceeds single chunk limit", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Generation.ChunkLimit = cfg.Generation.SingleChunkLimit + 1
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown default provider", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Defaults.Provider = "nonexistent"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing output root", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Storage.OutputRoot = ""
		assert.Error(t, cfg.Validate())
	})
}

func TestNormalizeProviderType(t *testing.T) {
	tests := []struct {
		in      string
		want    ProviderType
		wantErr bool
	}{
		{"gemini", ProviderGemini, false},
		{"google", ProviderGemini, false},
		{"openai", ProviderOpenAI, false},
		{"anthropic", ProviderAnthropic, false},
		{"cohere", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		got, err := NormalizeProviderType(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
		} else {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DOCGEN_MAX_INLINE_PREVIEW_BYTES", "1024")
	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	assert.Equal(t, int64(1024), cfg.Storage.MaxInlinePreviewBytes)

	t.Setenv("DOCGEN_MAX_INLINE_PREVIEW_BYTES", "not-a-number")
	cfg = DefaultConfig()
	cfg.applyEnvOverrides()
	assert.Equal(t, int64(8<<20), cfg.Storage.MaxInlinePreviewBytes)
}
