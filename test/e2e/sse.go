package e2e

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docgen-ai/docgen/pkg/events"
)

// StreamEvent is one decoded SSE data frame.
type StreamEvent struct {
	events.Event
	Raw json.RawMessage
}

// ReadSSE decodes every `data:` frame from an SSE body until EOF.
func ReadSSE(t *testing.T, body io.Reader) []StreamEvent {
	t.Helper()

	var out []StreamEvent
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 32*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		var ev events.Event
		require.NoError(t, json.Unmarshal([]byte(payload), &ev), "bad SSE frame: %s", payload)
		out = append(out, StreamEvent{Event: ev, Raw: json.RawMessage(payload)})
	}
	require.NoError(t, scanner.Err())
	return out
}

// Terminal returns the stream's terminal event and asserts there is exactly
// one, positioned last.
func Terminal(t *testing.T, evs []StreamEvent) StreamEvent {
	t.Helper()
	require.NotEmpty(t, evs, "stream produced no events")

	var terminals []int
	for i, ev := range evs {
		if ev.Event.Terminal() {
			terminals = append(terminals, i)
		}
	}
	require.Len(t, terminals, 1, "expected exactly one terminal event")
	require.Equal(t, len(evs)-1, terminals[0], "terminal event must close the stream")
	return evs[len(evs)-1]
}

// RequireMonotoneProgress asserts progress never decreases across the stream.
func RequireMonotoneProgress(t *testing.T, evs []StreamEvent) {
	t.Helper()
	last := -1
	for _, ev := range evs {
		if !ev.Status.IsProgress() {
			continue
		}
		require.GreaterOrEqual(t, ev.Progress, last,
			"progress regressed at %q", ev.Message)
		last = ev.Progress
	}
}
