package api

import (
	"time"

	"github.com/docgen-ai/docgen/pkg/cache"
	"github.com/docgen-ai/docgen/pkg/models"
)

// UploadResponse is the handle returned for a stored upload.
type UploadResponse struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// HealthResponse reports service health and build version.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// SessionResponse summarizes one session's generated outputs.
type SessionResponse struct {
	SessionID        string                `json:"session_id"`
	CreatedAt        time.Time             `json:"created_at"`
	OutputsGenerated []models.ArtifactKind `json:"outputs_generated"`
	LastGenerated    models.ArtifactKind   `json:"last_generated,omitempty"`
	LastGeneratedAt  time.Time             `json:"last_generated_at"`
}

// SessionListResponse wraps the session index.
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// CancelResponse acknowledges a cancellation request.
type CancelResponse struct {
	SessionID string `json:"session_id"`
	Cancelled bool   `json:"cancelled"`
}

func sessionResponse(m *cache.Manifest) SessionResponse {
	resp := SessionResponse{
		SessionID:        m.SessionID,
		CreatedAt:        m.CreatedAt,
		OutputsGenerated: m.OutputsGenerated,
		LastGeneratedAt:  m.LastGeneratedAt,
	}
	if n := len(m.OutputsGenerated); n > 0 {
		last := m.OutputsGenerated[0]
		for _, kind := range m.OutputsGenerated {
			if art, ok := m.Artifacts[kind]; ok {
				if lastArt, ok := m.Artifacts[last]; !ok || art.CreatedAt.After(lastArt.CreatedAt) {
					last = kind
				}
			}
		}
		resp.LastGenerated = last
	}
	return resp
}
