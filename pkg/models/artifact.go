// Package models holds the domain types shared across the generation
// pipeline: artifact kinds, sources, structured content, and the
// artifact-family payloads (podcast, mind-map, FAQ).
package models

import "fmt"

// ArtifactKind identifies the artifact family a run produces. It determines
// the workflow branch topology and the renderer.
type ArtifactKind string

const (
	ArtifactArticlePDF       ArtifactKind = "article_pdf"
	ArtifactArticleMarkdown  ArtifactKind = "article_markdown"
	ArtifactSlideDeckPDF     ArtifactKind = "slide_deck_pdf"
	ArtifactPresentationPPTX ArtifactKind = "presentation_pptx"
	ArtifactPodcast          ArtifactKind = "podcast"
	ArtifactMindMap          ArtifactKind = "mindmap"
	ArtifactFAQ              ArtifactKind = "faq"
	ArtifactImageGenerate    ArtifactKind = "image_generate"
	ArtifactImageEdit        ArtifactKind = "image_edit"
)

// ParseArtifactKind validates a request-supplied kind string.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	k := ArtifactKind(s)
	switch k {
	case ArtifactArticlePDF, ArtifactArticleMarkdown, ArtifactSlideDeckPDF,
		ArtifactPresentationPPTX, ArtifactPodcast, ArtifactMindMap,
		ArtifactFAQ, ArtifactImageGenerate, ArtifactImageEdit:
		return k, nil
	}
	return "", fmt.Errorf("unknown artifact kind: %q", s)
}

// IsDocument reports whether the kind follows the document branch
// (structure → images → render → validate).
func (k ArtifactKind) IsDocument() bool {
	switch k {
	case ArtifactArticlePDF, ArtifactArticleMarkdown, ArtifactSlideDeckPDF, ArtifactPresentationPPTX:
		return true
	}
	return false
}

// IsSlideCapable reports whether the kind renders slides and therefore needs
// a slide structure from the LLM.
func (k ArtifactKind) IsSlideCapable() bool {
	return k == ArtifactSlideDeckPDF || k == ArtifactPresentationPPTX
}

// NeedsSources reports whether the branch consumes ingested source text.
// Image generate/edit operate on the request prompt alone.
func (k ArtifactKind) NeedsSources() bool {
	return k != ArtifactImageGenerate && k != ArtifactImageEdit
}

// Ext returns the expected file extension (with dot) for rendered output.
func (k ArtifactKind) Ext() string {
	switch k {
	case ArtifactArticlePDF, ArtifactSlideDeckPDF:
		return ".pdf"
	case ArtifactPresentationPPTX:
		return ".pptx"
	case ArtifactArticleMarkdown:
		return ".md"
	case ArtifactPodcast:
		return ".wav"
	case ArtifactImageGenerate, ArtifactImageEdit:
		return ".png"
	default:
		return ".json"
	}
}

// Subdir returns the per-session output subdirectory for the kind.
func (k ArtifactKind) Subdir() string {
	switch k {
	case ArtifactArticlePDF, ArtifactSlideDeckPDF:
		return "pdf"
	case ArtifactPresentationPPTX:
		return "pptx"
	case ArtifactArticleMarkdown:
		return "markdown"
	case ArtifactPodcast:
		return "audio"
	case ArtifactImageGenerate, ArtifactImageEdit:
		return "images"
	default:
		return "data"
	}
}
