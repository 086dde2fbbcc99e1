// Package workflow is the graph runtime: typed nodes over a shared state,
// conditional routing, a bounded retry pair, progress emission, and
// cooperative cancellation.
package workflow

import (
	"fmt"

	"github.com/docgen-ai/docgen/pkg/config"
	"github.com/docgen-ai/docgen/pkg/models"
)

// StateError is one failure recorded by a node. Errors are data: nodes
// append here instead of returning Go errors across the node boundary.
type StateError struct {
	Code    models.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Node    string           `json:"node,omitempty"`
}

// Keys holds per-request provider credentials.
type Keys struct {
	APIKey      string
	ImageAPIKey string
	TTSAPIKey   string
}

// State is the single record passed between nodes. One execution mutates
// one State sequentially; nodes see all predecessor mutations.
type State struct {
	// Request context
	SessionID    string
	ArtifactKind models.ArtifactKind
	Provider     config.ProviderType
	Model        string
	ImageModel   string
	Keys         Keys
	Preferences  models.Preferences
	Sources      []models.Source
	SessionDir   string
	Prompt       string // image_generate / image_edit only
	SourceImage  []byte // image_edit only

	// Ingest outputs
	RawContent     string
	SummaryContent string
	ContentHash    string
	InputPath      string
	InputFormat    string
	Title          string

	// Structure outputs
	Structured *models.StructuredContent

	// Artifact outputs
	PodcastScript *models.PodcastScript
	PodcastAudio  *models.PodcastAudio
	MindMapTree   *models.MindMapTree
	FAQData       *models.FAQData
	ImageData     *models.ImageData
	OutputPath    string

	// Control
	Errors     []StateError
	Metadata   map[string]any
	RetryCount int
	Completed  bool
}

// NewState creates a State with initialized metadata.
func NewState() *State {
	return &State{Metadata: map[string]any{}}
}

// AddError appends a failure record.
func (s *State) AddError(code models.ErrorCode, format string, args ...any) {
	s.Errors = append(s.Errors, StateError{Code: code, Message: fmt.Sprintf(format, args...)})
}

// LastError returns the most recently appended error, or nil.
func (s *State) LastError() *StateError {
	if len(s.Errors) == 0 {
		return nil
	}
	return &s.Errors[len(s.Errors)-1]
}

// ClearRetryableErrors drops trailing retryable errors so a retried node
// starts from a clean slate while terminal history is preserved.
func (s *State) ClearRetryableErrors() {
	kept := s.Errors[:0]
	for _, e := range s.Errors {
		if !e.Code.Retryable() {
			kept = append(kept, e)
		}
	}
	s.Errors = kept
}

// TerminalError returns the first non-retryable error, or nil.
func (s *State) TerminalError() *StateError {
	for i := range s.Errors {
		if !s.Errors[i].Code.Retryable() {
			return &s.Errors[i]
		}
	}
	return nil
}

// SetMeta records a metadata value, allocating the map if needed.
func (s *State) SetMeta(key string, value any) {
	if s.Metadata == nil {
		s.Metadata = map[string]any{}
	}
	s.Metadata[key] = value
}
