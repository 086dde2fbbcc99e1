package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Call is one recorded LLM invocation.
type Call struct {
	StepName     string     `json:"step_name"`
	Provider     string     `json:"provider"`
	Model        string     `json:"model"`
	PromptDigest string     `json:"prompt_digest"`
	RespDigest   string     `json:"response_digest"`
	InputTokens  *int       `json:"input_tokens,omitempty"`
	OutputTokens *int       `json:"output_tokens,omitempty"`
	DurationMs   int64      `json:"duration_ms"`
	Timestamp    time.Time  `json:"timestamp"`
}

// defaultRingCapacity bounds the process-wide call ring.
const defaultRingCapacity = 1024

// UsageRegistry is a mutex-guarded ring of recorded calls plus aggregate
// counters. One instance lives for the process; the dispatcher reads a
// snapshot when assembling a terminal event.
type UsageRegistry struct {
	mu         sync.Mutex
	calls      []Call
	next       int
	filled     bool
	capacity   int
	totalCalls int64
	modelsUsed map[string]bool
}

// NewUsageRegistry creates a registry with the default ring capacity.
func NewUsageRegistry() *UsageRegistry {
	return &UsageRegistry{
		calls:      make([]Call, defaultRingCapacity),
		capacity:   defaultRingCapacity,
		modelsUsed: make(map[string]bool),
	}
}

// Record appends a call to the ring, evicting the oldest entry when full.
func (r *UsageRegistry) Record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls[r.next] = c
	r.next++
	if r.next == r.capacity {
		r.next = 0
		r.filled = true
	}
	r.totalCalls++
	r.modelsUsed[c.Model] = true
}

// Snapshot returns the recorded calls in insertion order plus the total call
// counter (which survives ring eviction).
func (r *UsageRegistry) Snapshot() ([]Call, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Call
	if r.filled {
		out = make([]Call, 0, r.capacity)
		out = append(out, r.calls[r.next:]...)
		out = append(out, r.calls[:r.next]...)
	} else {
		out = make([]Call, r.next)
		copy(out, r.calls[:r.next])
	}
	return out, r.totalCalls
}

// ModelsUsed returns the set of models seen since the last Reset.
func (r *UsageRegistry) ModelsUsed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	models := make([]string, 0, len(r.modelsUsed))
	for m := range r.modelsUsed {
		models = append(models, m)
	}
	return models
}

// CallsForStep returns recorded calls matching a step name, oldest first.
func (r *UsageRegistry) CallsForStep(step string) []Call {
	calls, _ := r.Snapshot()
	var out []Call
	for _, c := range calls {
		if c.StepName == step {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the ring and counters. Intended for tests.
func (r *UsageRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = make([]Call, r.capacity)
	r.next = 0
	r.filled = false
	r.totalCalls = 0
	r.modelsUsed = make(map[string]bool)
}

// digest returns the first 16 hex chars of SHA-256 over s. Used so the ring
// never retains prompt or response bodies.
func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
