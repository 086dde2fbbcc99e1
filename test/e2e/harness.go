// Package e2e provides end-to-end test infrastructure for the docgen
// pipeline: a complete server over real storage with a scripted LLM backend.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docgen-ai/docgen/pkg/api"
	"github.com/docgen-ai/docgen/pkg/cache"
	"github.com/docgen-ai/docgen/pkg/config"
	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/ingest"
	"github.com/docgen-ai/docgen/pkg/llm"
	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/render"
	"github.com/docgen-ai/docgen/pkg/tts"
)

// TestApp boots a complete docgen instance for e2e testing. The HTTP
// surface, workflow runtime, cache store, and renderers are real; the LLM
// provider backend and the speech synthesizer are scripted.
type TestApp struct {
	Config    *config.Config
	Gateway   *llm.Gateway
	Store     *cache.Store
	LLM       *ScriptedBackend
	Renderers *render.Registry
	Server    *api.Server

	BaseURL string // e.g. "http://127.0.0.1:54321"
	WSURL   string // e.g. "ws://127.0.0.1:54321/ws"

	t  *testing.T
	ts *httptest.Server
}

type testAppConfig struct {
	cfg       *config.Config
	script    *ScriptedBackend
	renderers *render.Registry
	synth     tts.Synthesizer
}

// TestAppOption configures the test app.
type TestAppOption func(*testAppConfig)

// WithConfig sets a custom config. Storage roots are still pointed at
// per-test temp directories.
func WithConfig(cfg *config.Config) TestAppOption {
	return func(c *testAppConfig) { c.cfg = cfg }
}

// WithScript sets a pre-scripted LLM backend.
func WithScript(s *ScriptedBackend) TestAppOption {
	return func(c *testAppConfig) { c.script = s }
}

// WithRenderers replaces the renderer registry, letting tests install
// misbehaving renderers.
func WithRenderers(r *render.Registry) TestAppOption {
	return func(c *testAppConfig) { c.renderers = r }
}

// WithSynthesizer replaces the TTS synthesizer.
func WithSynthesizer(s tts.Synthesizer) TestAppOption {
	return func(c *testAppConfig) { c.synth = s }
}

// NewTestApp creates and starts a full docgen server. Cleanup is registered
// on the test.
func NewTestApp(t *testing.T, opts ...TestAppOption) *TestApp {
	t.Helper()

	tc := &testAppConfig{}
	for _, opt := range opts {
		opt(tc)
	}

	cfg := tc.cfg
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Storage.OutputRoot = t.TempDir()
	cfg.Storage.CacheRoot = t.TempDir()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := cache.NewStore(cfg.Storage.CacheRoot, cfg.Storage.OutputRoot, logger)
	require.NoError(t, err)

	script := tc.script
	if script == nil {
		script = NewScriptedBackend()
	}
	gateway := llm.NewGateway(cfg.Providers, llm.NewUsageRegistry(), cfg.Generation.CallTimeout)
	gateway.OverrideBackendForTest(config.ProviderGemini, script.Generate)
	gateway.OverrideBackendForTest(config.ProviderOpenAI, script.Generate)
	gateway.OverrideBackendForTest(config.ProviderAnthropic, script.Generate)

	uploads, err := ingest.NewUploadStore(t.TempDir())
	require.NoError(t, err)
	ingestSvc := ingest.NewService(uploads, ingest.NewFetcher(nil, logger), ingest.NewParserRegistry(), gateway, logger)

	renderers := tc.renderers
	if renderers == nil {
		renderers = render.NewRegistry()
	}
	synth := tc.synth
	if synth == nil {
		synth = staticSynth{}
	}

	hub := events.NewHub(5*time.Second, logger)
	server := api.NewServer(cfg, gateway, store, ingestSvc, renderers, synth, hub, logger)

	ts := httptest.NewServer(server.Echo())
	t.Cleanup(func() {
		ts.Close()
		hub.Close()
	})

	return &TestApp{
		Config:    cfg,
		Gateway:   gateway,
		Store:     store,
		LLM:       script,
		Renderers: renderers,
		Server:    server,
		BaseURL:   ts.URL,
		WSURL:     "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
		t:         t,
		ts:        ts,
	}
}

// staticSynth returns one second of silent PCM for any script.
type staticSynth struct{}

func (staticSynth) Synthesize(context.Context, tts.Request) ([]byte, error) {
	return make([]byte, 48000), nil
}

// GenerateBody is the request body for generation endpoints.
type GenerateBody struct {
	Sources      []models.Source    `json:"sources,omitempty"`
	ArtifactKind string             `json:"artifact_kind,omitempty"`
	Provider     string             `json:"provider,omitempty"`
	Model        string             `json:"model,omitempty"`
	Preferences  models.Preferences `json:"preferences"`
	ReuseCache   bool               `json:"reuse_cache,omitempty"`
	SessionID    string             `json:"session_id,omitempty"`
	Prompt       string             `json:"prompt,omitempty"`
}

// TextBody builds a single-text-source request body.
func TextBody(kind, text string) GenerateBody {
	return GenerateBody{
		ArtifactKind: kind,
		Sources:      []models.Source{{Type: models.SourceText, Text: text}},
	}
}

// Generate posts to path and collects the full SSE event stream.
func (a *TestApp) Generate(t *testing.T, path string, body GenerateBody) []StreamEvent {
	t.Helper()
	resp := a.generateRaw(t, path, body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return ReadSSE(t, resp.Body)
}

// GenerateStream posts to path and returns the live response for incremental
// stream reads.
func (a *TestApp) GenerateStream(t *testing.T, path string, body GenerateBody) *http.Response {
	t.Helper()
	return a.generateRaw(t, path, body)
}

func (a *TestApp) generateRaw(t *testing.T, path string, body GenerateBody) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, a.BaseURL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Gemini-Key", "test-key")

	resp, err := a.ts.Client().Do(req)
	require.NoError(t, err)
	return resp
}

// Upload posts a file through /upload and returns its file id.
func (a *TestApp) Upload(t *testing.T, filename string, content []byte) string {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := a.ts.Client().Post(a.BaseURL+"/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		FileID string `json:"file_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.FileID)
	return out.FileID
}

// Cancel posts to the session cancel endpoint.
func (a *TestApp) Cancel(t *testing.T, sessionID string) *http.Response {
	t.Helper()
	resp, err := a.ts.Client().Post(a.BaseURL+"/sessions/"+sessionID+"/cancel", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}
