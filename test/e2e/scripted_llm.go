package e2e

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docgen-ai/docgen/pkg/llm"
)

// scriptEntry is one queued response for a step.
type scriptEntry struct {
	text  string
	err   error
	delay time.Duration
}

// ScriptedBackend stands in for every provider SDK. Responses are queued per
// workflow step name (optionally per model); queues are consumed in order and
// the last entry repeats. Every call is recorded for assertions.
type ScriptedBackend struct {
	mu       sync.Mutex
	calls    []llm.Request
	byStep   map[string][]scriptEntry
	byModel  map[string][]scriptEntry // key: step + "|" + model
	fallback string
}

// NewScriptedBackend creates a backend whose unscripted steps answer with a
// fixed placeholder text.
func NewScriptedBackend() *ScriptedBackend {
	return &ScriptedBackend{
		byStep:   map[string][]scriptEntry{},
		byModel:  map[string][]scriptEntry{},
		fallback: "scripted response",
	}
}

// Respond queues responses for a step, in order. The last one repeats.
func (s *ScriptedBackend) Respond(step string, texts ...string) *ScriptedBackend {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range texts {
		s.byStep[step] = append(s.byStep[step], scriptEntry{text: t})
	}
	return s
}

// RespondModel queues a response matched only when the call targets the
// given model. Model-specific entries win over step entries.
func (s *ScriptedBackend) RespondModel(step, model, text string) *ScriptedBackend {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := step + "|" + model
	s.byModel[key] = append(s.byModel[key], scriptEntry{text: text})
	return s
}

// Fail queues an error response for a step.
func (s *ScriptedBackend) Fail(step string, err error) *ScriptedBackend {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byStep[step] = append(s.byStep[step], scriptEntry{err: err})
	return s
}

// Delay queues a response that blocks for d (or until the call context ends)
// before answering. Used to hold a node open for cancellation tests.
func (s *ScriptedBackend) Delay(step string, d time.Duration, text string) *ScriptedBackend {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byStep[step] = append(s.byStep[step], scriptEntry{text: text, delay: d})
	return s
}

// Generate satisfies the gateway backend contract.
func (s *ScriptedBackend) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	entry := s.pop(req)
	s.mu.Unlock()

	if entry.delay > 0 {
		select {
		case <-time.After(entry.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if entry.err != nil {
		return nil, entry.err
	}
	return &llm.Response{Text: entry.text, Model: req.Model}, nil
}

// pop takes the next entry for the request. Caller holds the lock.
func (s *ScriptedBackend) pop(req llm.Request) scriptEntry {
	key := req.StepName + "|" + req.Model
	if queue := s.byModel[key]; len(queue) > 0 {
		entry := queue[0]
		if len(queue) > 1 {
			s.byModel[key] = queue[1:]
		}
		return entry
	}
	if queue := s.byStep[req.StepName]; len(queue) > 0 {
		entry := queue[0]
		if len(queue) > 1 {
			s.byStep[req.StepName] = queue[1:]
		}
		return entry
	}
	return scriptEntry{text: s.fallback}
}

// Calls returns a copy of every recorded request.
func (s *ScriptedBackend) Calls() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Request, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many calls a step received.
func (s *ScriptedBackend) CallCount(step string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.StepName == step {
			n++
		}
	}
	return n
}

// LastPrompt returns the user prompt of the most recent call for a step.
func (s *ScriptedBackend) LastPrompt(step string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.calls) - 1; i >= 0; i-- {
		if s.calls[i].StepName == step {
			return s.calls[i].UserPrompt, nil
		}
	}
	return "", fmt.Errorf("no calls recorded for step %s", step)
}
