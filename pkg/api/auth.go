package api

import (
	"os"

	echo "github.com/labstack/echo/v5"

	"github.com/docgen-ai/docgen/pkg/config"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

// Per-request credential headers. Keys arrive with the request and are never
// persisted; the environment variable named by the provider config is the
// fallback for deployments with server-held keys.
const (
	headerGeminiKey    = "X-Gemini-Key"
	headerGoogleKey    = "X-Google-Key"
	headerOpenAIKey    = "X-OpenAI-Key"
	headerAnthropicKey = "X-Anthropic-Key"
	headerImageKey     = "X-Image-Key"
	headerUserID       = "X-User-Id"
)

// requestKeys assembles the credential set for one generation request.
func requestKeys(c *echo.Context, provider config.ProviderType, pc *config.ProviderConfig) workflow.Keys {
	h := c.Request().Header

	geminiKey := h.Get(headerGeminiKey)
	if geminiKey == "" {
		geminiKey = h.Get(headerGoogleKey)
	}

	key := ""
	switch provider {
	case config.ProviderGemini:
		key = geminiKey
	case config.ProviderOpenAI:
		key = h.Get(headerOpenAIKey)
	case config.ProviderAnthropic:
		key = h.Get(headerAnthropicKey)
	}
	if key == "" && pc != nil && pc.APIKeyEnv != "" {
		key = os.Getenv(pc.APIKeyEnv)
	}

	// Speech synthesis always goes through Gemini TTS, so a non-Gemini text
	// provider still needs the Gemini credential for podcast runs.
	return workflow.Keys{
		APIKey:      key,
		ImageAPIKey: h.Get(headerImageKey),
		TTSAPIKey:   geminiKey,
	}
}
