package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgen-ai/docgen/pkg/config"
)

// fakeBackend returns scripted responses per model name.
type fakeBackend struct {
	responses map[string]*Response
	errs      map[string]error
	calls     []string
	prompts   []string
}

func (f *fakeBackend) generate(_ context.Context, req Request) (*Response, error) {
	f.calls = append(f.calls, req.Model)
	f.prompts = append(f.prompts, req.UserPrompt)
	if err, ok := f.errs[req.Model]; ok {
		return nil, err
	}
	if resp, ok := f.responses[req.Model]; ok {
		r := *resp
		return &r, nil
	}
	return nil, errors.New("unscripted model: " + req.Model)
}

func testGateway(fake *fakeBackend) *Gateway {
	providers := config.NewProviderRegistry(map[string]*config.ProviderConfig{
		"gemini": {
			Type:           config.ProviderGemini,
			Model:          "m0",
			FallbackModels: []string{"m1", "m2"},
		},
		"anthropic": {
			Type:  config.ProviderAnthropic,
			Model: "claude",
		},
	})
	g := NewGateway(providers, NewUsageRegistry(), 0)
	g.backends[config.ProviderGemini] = fake
	g.backends[config.ProviderAnthropic] = fake
	return g
}

func TestGatewayCallSuccess(t *testing.T) {
	fake := &fakeBackend{responses: map[string]*Response{"m0": {Text: "hello"}}}
	g := testGateway(fake)

	resp, err := g.Call(context.Background(), Request{
		Provider: config.ProviderGemini,
		Model:    "m0",
		APIKey:   "k",
		StepName: "test_step",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, "m0", resp.Model)
	assert.Equal(t, []string{"m0"}, fake.calls)

	calls, total := g.Usage().Snapshot()
	assert.Equal(t, int64(1), total)
	require.Len(t, calls, 1)
	assert.Equal(t, "test_step", calls[0].StepName)
}

func TestGatewayFallbackOnTransient(t *testing.T) {
	fake := &fakeBackend{
		errs:      map[string]error{"m0": errors.New("model is overloaded, try again")},
		responses: map[string]*Response{"m1": {Text: "from fallback"}},
	}
	g := testGateway(fake)

	resp, err := g.Call(context.Background(), Request{
		Provider: config.ProviderGemini,
		Model:    "m0",
		APIKey:   "k",
	})
	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Text)
	assert.Equal(t, "m1", resp.Model, "fallback model recorded as actually used")
	assert.Equal(t, []string{"m0", "m1"}, fake.calls)
}

func TestGatewayNoFallbackOnNonTransient(t *testing.T) {
	fake := &fakeBackend{
		errs:      map[string]error{"m0": errors.New("invalid request: bad prompt")},
		responses: map[string]*Response{"m1": {Text: "never reached"}},
	}
	g := testGateway(fake)

	_, err := g.Call(context.Background(), Request{
		Provider: config.ProviderGemini,
		Model:    "m0",
		APIKey:   "k",
	})
	require.Error(t, err)
	assert.Equal(t, []string{"m0"}, fake.calls, "non-transient error must not trigger fallback")
}

func TestGatewayNoFallbackForNonGemini(t *testing.T) {
	fake := &fakeBackend{
		errs: map[string]error{"claude": errors.New("503 service unavailable")},
	}
	g := testGateway(fake)

	_, err := g.Call(context.Background(), Request{
		Provider: config.ProviderAnthropic,
		Model:    "claude",
		APIKey:   "k",
	})
	require.Error(t, err)
	assert.Equal(t, []string{"claude"}, fake.calls)
}

func TestGatewayFallbackExhaustion(t *testing.T) {
	overloaded := errors.New("over capacity")
	fake := &fakeBackend{
		errs: map[string]error{"m0": overloaded, "m1": overloaded, "m2": overloaded},
	}
	g := testGateway(fake)

	_, err := g.Call(context.Background(), Request{
		Provider: config.ProviderGemini,
		Model:    "m0",
		APIKey:   "k",
	})
	require.Error(t, err)
	assert.Equal(t, []string{"m0", "m1", "m2"}, fake.calls)
	assert.Contains(t, err.Error(), "exhausted fallback models")
}

func TestGatewayJSONModeAppendsInstruction(t *testing.T) {
	fake := &fakeBackend{responses: map[string]*Response{"m0": {Text: "{}"}}}
	g := testGateway(fake)

	_, err := g.Call(context.Background(), Request{
		Provider:   config.ProviderGemini,
		Model:      "m0",
		APIKey:     "k",
		UserPrompt: "give me json",
		JSONMode:   true,
	})
	require.NoError(t, err)
	require.Len(t, fake.prompts, 1)
	assert.Contains(t, fake.prompts[0], "Respond with valid JSON only.")
}

func TestGatewayPerCallTimeout(t *testing.T) {
	providers := config.NewProviderRegistry(map[string]*config.ProviderConfig{
		"anthropic": {Type: config.ProviderAnthropic, Model: "claude"},
	})
	g := NewGateway(providers, NewUsageRegistry(), 30*time.Millisecond)
	g.backends[config.ProviderAnthropic] = backendFunc(func(ctx context.Context, _ Request) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	start := time.Now()
	_, err := g.Call(context.Background(), Request{
		Provider: config.ProviderAnthropic,
		Model:    "claude",
		APIKey:   "k",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second,
		"a hung provider must not stall the call past the configured bound")
}

func TestGatewayMissingAPIKey(t *testing.T) {
	g := testGateway(&fakeBackend{})
	_, err := g.Call(context.Background(), Request{
		Provider: config.ProviderGemini,
		Model:    "m0",
	})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestDedupeModels(t *testing.T) {
	out := dedupeModels([]string{"m0", "m1", "m0", "", "m2", "m1"})
	assert.Equal(t, []string{"m0", "m1", "m2"}, out)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(errors.New("503 Service Unavailable")))
	assert.True(t, isTransient(errors.New("the model is OVERLOADED")))
	assert.True(t, isTransient(errors.New("no capacity available")))
	assert.False(t, isTransient(errors.New("invalid api key")))
	assert.False(t, isTransient(nil))
}
