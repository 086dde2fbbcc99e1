package render

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgen-ai/docgen/pkg/models"
)

func sampleContent() *models.StructuredContent {
	return &models.StructuredContent{
		Title:   "System Overview",
		Outline: []string{"Intro", "Details"},
		Sections: []models.Section{
			{ID: 1, Title: "Intro", Content: "Alpha paragraph."},
			{ID: 2, Title: "Details", Content: "Beta paragraph."},
		},
		Markdown:         "# System Overview\n\n## 1. Intro\n\nAlpha paragraph.\n\n## 2. Details\n\nBeta paragraph.",
		ExecutiveSummary: "A short summary.",
		Slides: []models.Slide{
			{Title: "Overview", Bullets: []string{"Point one", "Point two"}},
			{Title: "Details", Bullets: []string{"More & more"}},
		},
		ContentHash: "hash",
	}
}

func TestMarkdownRenderer(t *testing.T) {
	dir := t.TempDir()
	path, err := NewRegistry().Render(context.Background(), Input{
		Kind:       models.ArtifactArticleMarkdown,
		Structured: sampleContent(),
		OutDir:     dir,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "system-overview.md"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleContent().Markdown, string(data))
	assert.NoError(t, Validate(path, models.ArtifactArticleMarkdown))
}

func TestMarkdownRendererFallbackFromSections(t *testing.T) {
	sc := sampleContent()
	sc.Markdown = ""
	path, err := (&MarkdownRenderer{}).Render(context.Background(), Input{
		Kind: models.ArtifactArticleMarkdown, Structured: sc, OutDir: t.TempDir(),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# System Overview")
	assert.Contains(t, string(data), "## 1. Intro")
	assert.Contains(t, string(data), "Beta paragraph.")
}

func TestMarkdownRendererImageReferences(t *testing.T) {
	sc := sampleContent()
	sc.SectionImages = map[int]models.SectionImage{
		1: {SectionID: 1, SectionTitle: "Intro", ImageType: models.ImageInfographic, Path: "/imgs/intro.png"},
	}
	path, err := (&MarkdownRenderer{}).Render(context.Background(), Input{
		Kind: models.ArtifactArticleMarkdown, Structured: sc, OutDir: t.TempDir(),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "![Intro](intro.png)")
}

func TestArticlePDFRenderer(t *testing.T) {
	dir := t.TempDir()
	path, err := NewRegistry().Render(context.Background(), Input{
		Kind:       models.ArtifactArticlePDF,
		Structured: sampleContent(),
		OutDir:     dir,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"), "output must be a PDF document")
	assert.NoError(t, Validate(path, models.ArtifactArticlePDF))
}

func TestSlidePDFRendererRequiresSlides(t *testing.T) {
	sc := sampleContent()
	sc.Slides = nil
	_, err := (&SlidePDFRenderer{}).Render(context.Background(), Input{
		Kind: models.ArtifactSlideDeckPDF, Structured: sc, OutDir: t.TempDir(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Generation failed")
}

func TestPPTXRenderer(t *testing.T) {
	dir := t.TempDir()
	path, err := NewRegistry().Render(context.Background(), Input{
		Kind:       models.ArtifactPresentationPPTX,
		Structured: sampleContent(),
		OutDir:     dir,
	})
	require.NoError(t, err)
	require.NoError(t, Validate(path, models.ArtifactPresentationPPTX))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["[Content_Types].xml"])
	assert.True(t, names["ppt/presentation.xml"])
	assert.True(t, names["ppt/slides/slide1.xml"])
	assert.True(t, names["ppt/slides/slide2.xml"])

	slide, err := zr.Open("ppt/slides/slide2.xml")
	require.NoError(t, err)
	defer slide.Close()
	data, err := io.ReadAll(slide)
	require.NoError(t, err)
	assert.Contains(t, string(data), "More &amp; more")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		err := Validate(filepath.Join(dir, "nope.md"), models.ArtifactArticleMarkdown)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Generation failed")
	})

	t.Run("empty file", func(t *testing.T) {
		p := filepath.Join(dir, "empty.md")
		require.NoError(t, os.WriteFile(p, nil, 0o644))
		err := Validate(p, models.ArtifactArticleMarkdown)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Validation failed")
	})

	t.Run("wrong extension", func(t *testing.T) {
		p := filepath.Join(dir, "doc.txt")
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		err := Validate(p, models.ArtifactArticlePDF)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Validation failed")
	})

	t.Run("no renderer for kind", func(t *testing.T) {
		_, err := NewRegistry().Render(context.Background(), Input{
			Kind: models.ArtifactPodcast, Structured: sampleContent(), OutDir: dir,
		})
		assert.Error(t, err)
	})
}
