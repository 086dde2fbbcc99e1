// Package render turns structured content into artifact files: markdown,
// paginated PDF, slide-deck PDF, and PPTX. Renderers write to deterministic
// paths inside the session output tree.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docgen-ai/docgen/pkg/cache"
	"github.com/docgen-ai/docgen/pkg/models"
)

// Input carries everything a renderer needs for one artifact.
type Input struct {
	Kind       models.ArtifactKind
	Structured *models.StructuredContent
	OutDir     string
	// EmbedImages controls inlining of section images into document output.
	EmbedImages bool
}

// Renderer produces the artifact file for one kind and returns its path.
type Renderer interface {
	Render(ctx context.Context, in Input) (string, error)
}

// Registry maps artifact kinds to renderers. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	renderers map[models.ArtifactKind]Renderer
}

// NewRegistry returns a registry with the built-in renderers installed.
func NewRegistry() *Registry {
	return &Registry{renderers: map[models.ArtifactKind]Renderer{
		models.ArtifactArticleMarkdown:  &MarkdownRenderer{},
		models.ArtifactArticlePDF:       &ArticlePDFRenderer{},
		models.ArtifactSlideDeckPDF:     &SlidePDFRenderer{},
		models.ArtifactPresentationPPTX: &PPTXRenderer{},
	}}
}

// Register installs (or replaces) the renderer for a kind.
func (r *Registry) Register(kind models.ArtifactKind, renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[kind] = renderer
}

// Render routes through the registered renderer for the kind.
func (r *Registry) Render(ctx context.Context, in Input) (string, error) {
	r.mu.RLock()
	renderer, ok := r.renderers[in.Kind]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no renderer for artifact kind %q", in.Kind)
	}
	if in.Structured == nil {
		return "", fmt.Errorf("no structured content to render")
	}
	if err := os.MkdirAll(in.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	return renderer.Render(ctx, in)
}

// OutputPath returns the deterministic artifact path for a title and kind.
func OutputPath(outDir, title string, kind models.ArtifactKind) string {
	return filepath.Join(outDir, cache.Slug(title)+kind.Ext())
}

// Validate checks a rendered file: it must exist, be non-empty, and carry
// the kind's expected extension.
func Validate(path string, kind models.ArtifactKind) error {
	if path == "" {
		return fmt.Errorf("Generation failed: no output path recorded")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("Generation failed: output file missing: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("Validation failed: output file is empty: %s", path)
	}
	if ext := kind.Ext(); !strings.HasSuffix(path, ext) {
		return fmt.Errorf("Validation failed: expected %s extension, got %s", ext, filepath.Ext(path))
	}
	return nil
}
