// Package events carries progress from workflow nodes to streaming clients:
// a bounded FIFO bus per execution, SSE encoding for the HTTP response, and
// a WebSocket hub for dashboard observers.
package events

import (
	"time"

	"github.com/docgen-ai/docgen/pkg/models"
)

// Status discriminates event payloads. Progress updates carry the workflow
// phase as their status; terminal statuses end the stream.
type Status string

const (
	StatusComplete  Status = "complete"
	StatusCacheHit  Status = "cache_hit"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Stage is the phase a progress event reports. Stages double as statuses:
// clients key on the status field alone.
type Stage = Status

const (
	StageParsing          Stage = "parsing"
	StageTransforming     Stage = "transforming"
	StageGeneratingImages Stage = "generating_images"
	StageGeneratingOutput Stage = "generating_output"
	StageUploading        Stage = "uploading"
)

// IsProgress reports whether the status names a workflow phase rather than a
// terminal outcome.
func (s Status) IsProgress() bool {
	switch s {
	case StageParsing, StageTransforming, StageGeneratingImages,
		StageGeneratingOutput, StageUploading:
		return true
	}
	return false
}

// Event is one SSE payload. Fields are populated per status; unused fields
// are omitted from the JSON encoding.
type Event struct {
	Status Status `json:"status"`

	// Progress fields
	Stage    Stage  `json:"stage,omitempty"`
	Progress int    `json:"progress,omitempty"`
	Message  string `json:"message,omitempty"`

	// Completion fields
	DownloadURL string         `json:"download_url,omitempty"`
	FilePath    string         `json:"file_path,omitempty"`
	ExpiresIn   int            `json:"expires_in,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	SessionID   string         `json:"session_id,omitempty"`

	// Cache-hit fields
	CachedAt        *time.Time `json:"cached_at,omitempty"`
	PDFBase64       string     `json:"pdf_base64,omitempty"`
	MarkdownContent string     `json:"markdown_content,omitempty"`

	// Error fields
	Error string           `json:"error,omitempty"`
	Code  models.ErrorCode `json:"code,omitempty"`
}

// Terminal reports whether the event ends its stream.
func (e Event) Terminal() bool {
	switch e.Status {
	case StatusComplete, StatusCacheHit, StatusError, StatusCancelled:
		return true
	}
	return false
}

// NewProgress builds a progress event. progress is clamped to [0,100].
func NewProgress(stage Stage, progress int, message string) Event {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return Event{Status: stage, Stage: stage, Progress: progress, Message: message}
}

// NewComplete builds the terminal success event.
func NewComplete(sessionID, filePath, downloadURL string, expiresIn int, metadata map[string]any) Event {
	return Event{
		Status:      StatusComplete,
		Progress:    100,
		SessionID:   sessionID,
		FilePath:    filePath,
		DownloadURL: downloadURL,
		ExpiresIn:   expiresIn,
		Metadata:    metadata,
	}
}

// NewCacheHit builds the terminal cache-hit event.
func NewCacheHit(sessionID, filePath, downloadURL string, expiresIn int, cachedAt time.Time) Event {
	return Event{
		Status:      StatusCacheHit,
		Progress:    100,
		SessionID:   sessionID,
		FilePath:    filePath,
		DownloadURL: downloadURL,
		ExpiresIn:   expiresIn,
		CachedAt:    &cachedAt,
	}
}

// NewError builds the terminal error event.
func NewError(code models.ErrorCode, message string) Event {
	return Event{Status: StatusError, Code: code, Error: message}
}

// NewCancelled builds the terminal cancellation event.
func NewCancelled() Event {
	return Event{Status: StatusCancelled, Code: models.ErrCancelled, Message: "generation cancelled"}
}
