package nodes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docgen-ai/docgen/pkg/cache"
	"github.com/docgen-ai/docgen/pkg/config"
	"github.com/docgen-ai/docgen/pkg/ingest"
	"github.com/docgen-ai/docgen/pkg/llm"
	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/render"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

// fakeLLM scripts gateway responses per step name. Responses are consumed in
// order; the last one repeats for further calls.
type fakeLLM struct {
	mu        sync.Mutex
	calls     []llm.Request
	responses map[string][]string
	errs      map[string]error
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{responses: map[string][]string{}, errs: map[string]error{}}
}

func (f *fakeLLM) respond(step string, texts ...string) { f.responses[step] = texts }
func (f *fakeLLM) fail(step string, err error)          { f.errs[step] = err }

func (f *fakeLLM) Call(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if err := f.errs[req.StepName]; err != nil {
		return nil, err
	}
	queue := f.responses[req.StepName]
	if len(queue) == 0 {
		return nil, fmt.Errorf("no scripted response for step %s", req.StepName)
	}
	text := queue[0]
	if len(queue) > 1 {
		f.responses[req.StepName] = queue[1:]
	}
	return &llm.Response{Text: text, Model: req.Model}, nil
}

func (f *fakeLLM) count(step string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.StepName == step {
			n++
		}
	}
	return n
}

func testDeps(t *testing.T, f *fakeLLM) *Deps {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := cache.NewStore(t.TempDir(), t.TempDir(), logger)
	require.NoError(t, err)

	providers := config.NewProviderRegistry(map[string]*config.ProviderConfig{
		"gemini": {
			Type:               config.ProviderGemini,
			Model:              "gemini-2.5-flash",
			FallbackModels:     []string{"gemini-2.0-flash"},
			ImageModel:         "imagen-primary",
			ImageFallbackModel: "imagen-fast",
			TTSModel:           "tts-test-model",
		},
	})
	return &Deps{
		LLM:       f,
		Store:     store,
		Renderers: render.NewRegistry(),
		Providers: providers,
		Gen:       config.DefaultConfig().Generation,
		Logger:    logger,
		Sleep:     func(time.Duration) {},
	}
}

func testState(t *testing.T, kind models.ArtifactKind) *workflow.State {
	t.Helper()
	st := workflow.NewState()
	st.SessionID = "sess-test"
	st.ArtifactKind = kind
	st.Provider = config.ProviderGemini
	st.Model = "gemini-2.5-flash"
	st.Keys = workflow.Keys{APIKey: "key"}
	st.SessionDir = t.TempDir()
	st.RawContent = "Some raw content about the topic."
	st.ContentHash = ingest.HashContent(st.RawContent)
	st.Title = "Test Document"
	return st
}
