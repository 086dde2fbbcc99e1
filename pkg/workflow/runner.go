package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/models"
)

// Runner executes a compiled graph against one state, emitting progress
// events to the execution's bus.
type Runner struct {
	graph  *Graph
	bus    *events.Bus
	logger *slog.Logger

	// maxProgress is the execution's progress high-water mark. Retry
	// loop-backs revisit earlier steps, which map to lower raw values;
	// emitted progress is clamped so the stream never regresses.
	maxProgress int
}

// NewRunner wires a runner. bus may be nil, in which case no events are
// emitted (useful in tests).
func NewRunner(graph *Graph, bus *events.Bus, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{graph: graph, bus: bus, logger: logger.With("component", "workflow")}
}

// Run walks the graph from its entry until End, a terminal error, an early
// completion, or cancellation. Returns the final state; the caller inspects
// state.Errors and the emitted events for the outcome. The bus is left open
// so the caller can append its own terminal event before closing.
func (r *Runner) Run(ctx context.Context, st *State) *State {
	cur := r.graph.entry

	for cur != End {
		// Cooperative cancellation: never start another node once the
		// signal fires. In-flight work finished before we got here.
		if ctx.Err() != nil {
			r.logger.Info("Execution cancelled", "session_id", st.SessionID, "next_node", cur)
			// The run context is already dead; emit the terminal event
			// with a fresh one so it still reaches the stream.
			r.emit(context.Background(), events.NewCancelled())
			st.AddError(models.ErrCancelled, "execution cancelled before %s", cur)
			return st
		}

		node := r.graph.nodes[cur]
		step := r.graph.StepNumber(cur, st)
		total := r.graph.TotalSteps()
		stage := events.StageFor(node.StepGroup())

		r.emitProgress(ctx, stage, events.ProgressFor(step-1, total), "Running "+cur)

		start := time.Now()
		st = node.Run(ctx, st)
		elapsed := time.Since(start)

		r.logger.Debug("Node finished",
			"node", cur,
			"session_id", st.SessionID,
			"duration_ms", elapsed.Milliseconds(),
			"errors", len(st.Errors))

		next, routed := r.route(cur, st)
		if routed {
			cur = next
			continue
		}

		if term := st.TerminalError(); term != nil {
			r.logger.Warn("Terminal node error",
				"node", cur, "code", term.Code, "message", term.Message)
			return st
		}

		r.emitProgress(ctx, stage, events.ProgressFor(step, total), "Finished "+cur)

		if st.Completed {
			return st
		}

		var err error
		cur, err = r.graph.next(cur, st)
		if err != nil {
			st.AddError(models.ErrInternal, "routing failed: %v", err)
			return st
		}
	}
	return st
}

// route applies the retry policy: when the target node just recorded a
// retryable error and budget remains, loop back to the source node.
func (r *Runner) route(cur string, st *State) (string, bool) {
	policy := r.graph.retry
	if policy == nil || cur != policy.Target {
		return "", false
	}
	last := st.LastError()
	if last == nil || !last.Code.Retryable() {
		return "", false
	}
	if st.RetryCount >= policy.Max {
		r.logger.Warn("Retry budget exhausted",
			"node", cur, "retries", st.RetryCount, "code", last.Code)
		return "", false
	}
	st.RetryCount++
	st.ClearRetryableErrors()
	r.logger.Info("Retrying generation",
		"source", policy.Source, "attempt", st.RetryCount+1, "code", last.Code)
	return policy.Source, true
}

func (r *Runner) emitProgress(ctx context.Context, stage events.Stage, progress int, message string) {
	if progress < r.maxProgress {
		progress = r.maxProgress
	}
	r.maxProgress = progress
	r.emit(ctx, events.NewProgress(stage, progress, message))
}

func (r *Runner) emit(ctx context.Context, ev events.Event) {
	if r.bus == nil {
		return
	}
	r.bus.Emit(ctx, ev)
}
