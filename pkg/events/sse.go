package events

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteSSE encodes one event as a server-sent-event data frame.
func WriteSSE(w io.Writer, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}
