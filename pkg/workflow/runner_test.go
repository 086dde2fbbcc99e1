package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/models"
)

// stubNode counts invocations and applies a scripted behavior per call.
type stubNode struct {
	name  string
	group string
	calls int
	run   func(call int, st *State)
}

func (n *stubNode) Name() string      { return n.name }
func (n *stubNode) StepGroup() string { return n.group }
func (n *stubNode) Run(_ context.Context, st *State) *State {
	n.calls++
	if n.run != nil {
		n.run(n.calls, st)
	}
	return st
}

func passNode(name string) *stubNode {
	return &stubNode{name: name, group: events.GroupTransform}
}

func compileChain(t *testing.T, nodes ...*stubNode) *Graph {
	t.Helper()
	b := NewBuilder(nodes[0].name)
	names := make([]string, len(nodes))
	for i, n := range nodes {
		b.AddNode(n)
		names[i] = n.name
	}
	for i := 0; i < len(nodes)-1; i++ {
		b.AddEdge(nodes[i].name, nodes[i+1].name)
	}
	b.AddEdge(nodes[len(nodes)-1].name, End)
	b.WithSteps(names...)
	g, err := b.Compile()
	require.NoError(t, err)
	return g
}

func drain(bus *events.Bus) []events.Event {
	bus.Close()
	var out []events.Event
	for ev := range bus.Events() {
		out = append(out, ev)
	}
	return out
}

func TestRunnerExecutesInOrder(t *testing.T) {
	var order []string
	mk := func(name string) *stubNode {
		n := passNode(name)
		n.run = func(int, *State) { order = append(order, name) }
		return n
	}
	g := compileChain(t, mk("a"), mk("b"), mk("c"))
	bus := events.NewBus(32)

	st := NewRunner(g, bus, nil).Run(context.Background(), NewState())

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Empty(t, st.Errors)

	evs := drain(bus)
	require.NotEmpty(t, evs)
	prev := -1
	for _, ev := range evs {
		assert.GreaterOrEqual(t, ev.Progress, prev, "progress must be monotone")
		prev = ev.Progress
	}
}

func TestRunnerRetryPair(t *testing.T) {
	const maxRetries = 3

	t.Run("retries until success", func(t *testing.T) {
		gen := passNode("generate_output")
		validate := &stubNode{name: "validate_output", group: events.GroupOutput}
		validate.run = func(call int, st *State) {
			if call < 3 {
				st.AddError(models.ErrValidationFailed, "Validation failed: empty file")
			}
		}

		b := NewBuilder("generate_output").
			AddNode(gen).AddNode(validate).
			AddEdge("generate_output", "validate_output").
			AddEdge("validate_output", End).
			WithSteps("generate_output", "validate_output").
			WithRetry("generate_output", "validate_output", maxRetries)
		g, err := b.Compile()
		require.NoError(t, err)

		st := NewRunner(g, nil, nil).Run(context.Background(), NewState())
		assert.Equal(t, 3, gen.calls)
		assert.Equal(t, 2, st.RetryCount)
		assert.Empty(t, st.Errors, "retryable errors are cleared on retry")
	})

	t.Run("progress stays monotone across loop-backs", func(t *testing.T) {
		gen := passNode("generate_output")
		gen.group = events.GroupOutput
		validate := &stubNode{name: "validate_output", group: events.GroupOutput}
		validate.run = func(call int, st *State) {
			if call < 3 {
				st.AddError(models.ErrValidationFailed, "Validation failed: empty file")
			}
		}

		g, err := NewBuilder("generate_output").
			AddNode(gen).AddNode(validate).
			AddEdge("generate_output", "validate_output").
			AddEdge("validate_output", End).
			WithSteps("generate_output", "validate_output").
			WithRetry("generate_output", "validate_output", maxRetries).
			Compile()
		require.NoError(t, err)

		bus := events.NewBus(64)
		NewRunner(g, bus, nil).Run(context.Background(), NewState())

		// Revisiting generate_output maps to a lower raw value; the stream
		// must hold the high-water mark instead.
		prev := -1
		for _, ev := range drain(bus) {
			require.GreaterOrEqual(t, ev.Progress, prev,
				"progress regressed at %q", ev.Message)
			prev = ev.Progress
		}
	})

	t.Run("bounded by max retries", func(t *testing.T) {
		gen := passNode("generate_output")
		validate := &stubNode{name: "validate_output", group: events.GroupOutput}
		validate.run = func(_ int, st *State) {
			st.AddError(models.ErrGenerationFailed, "Generation failed: renderer produced nothing")
		}

		g, err := NewBuilder("generate_output").
			AddNode(gen).AddNode(validate).
			AddEdge("generate_output", "validate_output").
			AddEdge("validate_output", End).
			WithSteps("generate_output", "validate_output").
			WithRetry("generate_output", "validate_output", maxRetries).
			Compile()
		require.NoError(t, err)

		st := NewRunner(g, nil, nil).Run(context.Background(), NewState())
		assert.Equal(t, maxRetries+1, gen.calls, "source runs at most max_retries+1 times")
		assert.Equal(t, maxRetries, st.RetryCount)
		require.NotNil(t, st.LastError())
		assert.Equal(t, models.ErrGenerationFailed, st.LastError().Code)
	})
}

func TestRunnerStopsOnTerminalError(t *testing.T) {
	first := passNode("first")
	first.run = func(_ int, st *State) {
		st.AddError(models.ErrParseFailed, "parser refused input")
	}
	second := passNode("second")
	g := compileChain(t, first, second)

	st := NewRunner(g, nil, nil).Run(context.Background(), NewState())
	assert.Equal(t, 0, second.calls)
	require.NotNil(t, st.TerminalError())
	assert.Equal(t, models.ErrParseFailed, st.TerminalError().Code)
}

func TestRunnerEarlyCompletion(t *testing.T) {
	first := passNode("first")
	first.run = func(_ int, st *State) { st.Completed = true }
	second := passNode("second")
	g := compileChain(t, first, second)

	st := NewRunner(g, nil, nil).Run(context.Background(), NewState())
	assert.True(t, st.Completed)
	assert.Equal(t, 0, second.calls)
}

func TestRunnerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := passNode("first")
	first.run = func(int, *State) { cancel() }
	second := passNode("second")
	third := passNode("third")
	g := compileChain(t, first, second, third)

	bus := events.NewBus(32)
	st := NewRunner(g, bus, nil).Run(ctx, NewState())

	// Cancellation is observed between nodes: nothing after the signal runs.
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
	assert.Equal(t, 0, third.calls)
	require.NotNil(t, st.LastError())
	assert.Equal(t, models.ErrCancelled, st.LastError().Code)

	evs := drain(bus)
	require.NotEmpty(t, evs)
	last := evs[len(evs)-1]
	assert.Equal(t, events.StatusCancelled, last.Status)
}

func TestRunnerConditionalRouting(t *testing.T) {
	entry := passNode("entry")
	left := passNode("left")
	right := passNode("right")

	g, err := NewBuilder("entry").
		AddNode(entry).AddNode(left).AddNode(right).
		AddConditionalEdge("entry", func(st *State) string {
			if st.ArtifactKind == models.ArtifactFAQ {
				return "right"
			}
			return "left"
		}).
		AddEdge("left", End).
		AddEdge("right", End).
		WithSteps("entry", "left").
		Compile()
	require.NoError(t, err)

	st := NewState()
	st.ArtifactKind = models.ArtifactFAQ
	NewRunner(g, nil, nil).Run(context.Background(), st)
	assert.Equal(t, 0, left.calls)
	assert.Equal(t, 1, right.calls)
}
