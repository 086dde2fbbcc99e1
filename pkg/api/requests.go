package api

import (
	"encoding/base64"
	"fmt"

	"github.com/docgen-ai/docgen/pkg/models"
)

// GenerateRequest is the body shared by all generation endpoints. The
// dedicated endpoints (/generate/podcast etc.) ignore ArtifactKind and force
// their own.
type GenerateRequest struct {
	Sources      []models.Source    `json:"sources,omitempty"`
	ArtifactKind string             `json:"artifact_kind,omitempty"`
	Provider     string             `json:"provider,omitempty"`
	Model        string             `json:"model,omitempty"`
	ImageModel   string             `json:"image_model,omitempty"`
	Preferences  models.Preferences `json:"preferences"`
	ReuseCache   bool               `json:"reuse_cache,omitempty"`
	SessionID    string             `json:"session_id,omitempty"`

	// Image generate/edit only.
	Prompt            string `json:"prompt,omitempty"`
	SourceImageBase64 string `json:"source_image_base64,omitempty"`
}

// validateFor checks the request shape for a resolved artifact kind and
// decodes the source image for edits. Returned errors are safe to surface
// as 400s.
func (r *GenerateRequest) validateFor(kind models.ArtifactKind) ([]byte, error) {
	if kind.NeedsSources() {
		if len(r.Sources) == 0 {
			return nil, fmt.Errorf("at least one source is required")
		}
		for i, src := range r.Sources {
			if err := validateSource(src); err != nil {
				return nil, fmt.Errorf("sources[%d]: %w", i, err)
			}
		}
		return nil, nil
	}

	if r.Prompt == "" {
		return nil, fmt.Errorf("prompt is required for %s", kind)
	}
	if kind == models.ArtifactImageEdit {
		if r.SourceImageBase64 == "" {
			return nil, fmt.Errorf("source_image_base64 is required for %s", kind)
		}
		img, err := base64.StdEncoding.DecodeString(r.SourceImageBase64)
		if err != nil {
			return nil, fmt.Errorf("source_image_base64 is not valid base64: %w", err)
		}
		return img, nil
	}
	return nil, nil
}

func validateSource(src models.Source) error {
	switch src.Type {
	case models.SourceFile:
		if src.FileID == "" {
			return fmt.Errorf("file source requires file_id")
		}
	case models.SourceURL:
		if src.URL == "" {
			return fmt.Errorf("url source requires url")
		}
	case models.SourceText:
		if src.Text == "" {
			return fmt.Errorf("text source requires text")
		}
	default:
		return fmt.Errorf("unknown source type %q", src.Type)
	}
	return nil
}
