// Package llm provides a uniform invocation layer over the supported
// text/multimodal providers with model fallback, JSON mode, and usage
// accounting.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/docgen-ai/docgen/pkg/config"
)

// ErrNoAPIKey indicates that neither the request nor the environment supplied
// a credential for the selected provider.
var ErrNoAPIKey = errors.New("no api key available for provider")

// Attachment is an inline binary input for multimodal calls (vision).
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Request describes a single text-generation call.
type Request struct {
	Provider        config.ProviderType
	Model           string
	SystemPrompt    string
	UserPrompt      string
	Attachments     []Attachment
	MaxOutputTokens int
	Temperature     float32
	JSONMode        bool
	StepName        string
	APIKey          string
}

// Usage reports token consumption and wall time for one call.
// Token counts are nil when the provider does not report them.
type Usage struct {
	InputTokens  *int
	OutputTokens *int
	DurationMs   int64
}

// Response is the result of a successful call.
type Response struct {
	Text  string
	Usage Usage
	// Model is the model that actually produced the response — differs from
	// the requested model when fallback engaged.
	Model string
}

// backend generates text for a single provider SDK. Implementations must be
// safe for concurrent use.
type backend interface {
	generate(ctx context.Context, req Request) (*Response, error)
}

// Sink receives per-call observability data. The default sink logs through
// slog; tests substitute their own.
type Sink interface {
	Observe(stepName, prompt, response string, metadata map[string]any)
}

// slogSink logs call summaries without prompt/response bodies.
type slogSink struct{}

func (slogSink) Observe(stepName, prompt, response string, metadata map[string]any) {
	slog.Debug("LLM call observed",
		"step", stepName,
		"prompt_chars", len(prompt),
		"response_chars", len(response),
		"metadata", metadata)
}

// Gateway dispatches calls to provider backends, applies Gemini model
// fallback on transient overload, and records usage. Safe for concurrent use
// by multiple workflow executions.
type Gateway struct {
	providers *config.ProviderRegistry
	usage     *UsageRegistry
	sink      Sink
	backends  map[config.ProviderType]backend

	// callTimeout bounds each provider attempt. Zero disables the bound.
	callTimeout time.Duration
}

// NewGateway creates a Gateway with the real provider backends.
func NewGateway(providers *config.ProviderRegistry, usage *UsageRegistry, callTimeout time.Duration) *Gateway {
	return &Gateway{
		providers:   providers,
		usage:       usage,
		sink:        slogSink{},
		callTimeout: callTimeout,
		backends: map[config.ProviderType]backend{
			config.ProviderGemini:    &geminiBackend{},
			config.ProviderOpenAI:    &openaiBackend{},
			config.ProviderAnthropic: &anthropicBackend{},
		},
	}
}

// generateWithTimeout runs one backend attempt under the per-call bound.
func (g *Gateway) generateWithTimeout(ctx context.Context, be backend, req Request) (*Response, error) {
	if g.callTimeout <= 0 {
		return be.generate(ctx, req)
	}
	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()
	return be.generate(callCtx, req)
}

// backendFunc adapts a plain function to the backend interface.
type backendFunc func(ctx context.Context, req Request) (*Response, error)

func (f backendFunc) generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// OverrideBackendForTest replaces a provider backend. For testing only.
func (g *Gateway) OverrideBackendForTest(t config.ProviderType, generate func(ctx context.Context, req Request) (*Response, error)) {
	g.backends[t] = backendFunc(generate)
}

// SetSink replaces the observability sink. Nil restores the default.
func (g *Gateway) SetSink(s Sink) {
	if s == nil {
		s = slogSink{}
	}
	g.sink = s
}

// Usage exposes the gateway's usage registry.
func (g *Gateway) Usage() *UsageRegistry { return g.usage }

// Call invokes the provider named in the request. For Gemini, transient
// overload errors trigger fallback through the provider's ordered model list;
// other errors (and other providers) abort without fallback.
func (g *Gateway) Call(ctx context.Context, req Request) (*Response, error) {
	be, ok := g.backends[req.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported llm provider: %q", req.Provider)
	}
	if req.APIKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoAPIKey, req.Provider)
	}

	if req.JSONMode {
		// Providers occasionally ignore the native JSON hint; the explicit
		// instruction plus SafeJSONParse on the caller side covers both.
		req.UserPrompt = req.UserPrompt + "\n\nRespond with valid JSON only."
	}

	models := g.candidateModels(req)

	var lastErr error
	for i, model := range models {
		attempt := req
		attempt.Model = model

		start := time.Now()
		resp, err := g.generateWithTimeout(ctx, be, attempt)
		duration := time.Since(start)

		if err != nil {
			lastErr = err
			if req.Provider == config.ProviderGemini && isTransient(err) && i < len(models)-1 {
				slog.Warn("LLM call hit transient error, falling back to next model",
					"step", req.StepName,
					"model", model,
					"next_model", models[i+1],
					"error", err)
				continue
			}
			return nil, fmt.Errorf("llm call failed (step=%s, model=%s): %w", req.StepName, model, err)
		}

		resp.Model = model
		resp.Usage.DurationMs = duration.Milliseconds()

		g.usage.Record(Call{
			StepName:     req.StepName,
			Provider:     string(req.Provider),
			Model:        model,
			PromptDigest: digest(req.SystemPrompt + req.UserPrompt),
			RespDigest:   digest(resp.Text),
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			DurationMs:   resp.Usage.DurationMs,
			Timestamp:    time.Now(),
		})

		g.sink.Observe(req.StepName, req.UserPrompt, resp.Text, map[string]any{
			"provider":    string(req.Provider),
			"model":       model,
			"duration_ms": resp.Usage.DurationMs,
		})

		return resp, nil
	}

	return nil, fmt.Errorf("llm call exhausted fallback models (step=%s): %w", req.StepName, lastErr)
}

// candidateModels builds the ordered, deduplicated model list for a request.
// The caller's model always comes first; Gemini appends the provider-curated
// fallback chain.
func (g *Gateway) candidateModels(req Request) []string {
	models := []string{req.Model}
	if req.Provider == config.ProviderGemini {
		if pc := g.lookupByType(req.Provider); pc != nil {
			models = append(models, pc.FallbackModels...)
		}
	}
	return dedupeModels(models)
}

// lookupByType finds the first configured provider entry of the given type.
func (g *Gateway) lookupByType(t config.ProviderType) *config.ProviderConfig {
	for _, name := range g.providers.Names() {
		if pc, err := g.providers.Get(name); err == nil && pc.Type == t {
			return pc
		}
	}
	return nil
}

// dedupeModels removes duplicates while preserving first-seen order.
func dedupeModels(models []string) []string {
	seen := make(map[string]bool, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
