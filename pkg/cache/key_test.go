package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docgen-ai/docgen/pkg/models"
)

func boolPtr(b bool) *bool { return &b }

func TestSourceDigest(t *testing.T) {
	a := models.Source{Type: models.SourceText, Text: "alpha"}
	b := models.Source{Type: models.SourceURL, URL: "https://example.com/doc"}

	t.Run("deterministic", func(t *testing.T) {
		d1 := SourceDigest([]models.Source{a, b})
		d2 := SourceDigest([]models.Source{a, b})
		assert.Equal(t, d1, d2)
		assert.Len(t, d1, 64)
	})

	t.Run("order sensitive", func(t *testing.T) {
		assert.NotEqual(t,
			SourceDigest([]models.Source{a, b}),
			SourceDigest([]models.Source{b, a}))
	})

	t.Run("type participates", func(t *testing.T) {
		asText := models.Source{Type: models.SourceText, Text: "same"}
		asFile := models.Source{Type: models.SourceFile, FileID: "same"}
		assert.NotEqual(t,
			SourceDigest([]models.Source{asText}),
			SourceDigest([]models.Source{asFile}))
	})

	t.Run("empty set", func(t *testing.T) {
		assert.Empty(t, SourceDigest(nil))
	})
}

func TestCanonicalPreferences(t *testing.T) {
	t.Run("defaults canonicalize to empty", func(t *testing.T) {
		assert.Equal(t, "", CanonicalPreferences(models.Preferences{}))
	})

	t.Run("fixed order and lowercased enums", func(t *testing.T) {
		got := CanonicalPreferences(models.Preferences{
			ImageStyle: "Watercolor",
			MaxSlides:  12,
			Speakers:   []string{"Ada", "Grace"},
		})
		assert.Equal(t, "image_style=watercolor;max_slides=12;speakers=ada,grace", got)
	})

	t.Run("explicit false differs from unset", func(t *testing.T) {
		unset := CanonicalPreferences(models.Preferences{})
		explicit := CanonicalPreferences(models.Preferences{EnableDiagrams: boolPtr(false)})
		assert.NotEqual(t, unset, explicit)
		assert.Contains(t, explicit, "enable_diagrams=false")
	})
}

func TestKey(t *testing.T) {
	digest := SourceDigest([]models.Source{{Type: models.SourceText, Text: "doc"}})

	base := Key(models.ArtifactArticlePDF, "gemini", "gemini-2.5-flash", "", models.Preferences{}, digest)
	assert.Len(t, base, 64)

	t.Run("same inputs same key", func(t *testing.T) {
		again := Key(models.ArtifactArticlePDF, "gemini", "gemini-2.5-flash", "", models.Preferences{}, digest)
		assert.Equal(t, base, again)
	})

	t.Run("kind changes key", func(t *testing.T) {
		other := Key(models.ArtifactFAQ, "gemini", "gemini-2.5-flash", "", models.Preferences{}, digest)
		assert.NotEqual(t, base, other)
	})

	t.Run("model changes key", func(t *testing.T) {
		other := Key(models.ArtifactArticlePDF, "gemini", "gemini-2.0-flash", "", models.Preferences{}, digest)
		assert.NotEqual(t, base, other)
	})

	t.Run("preferences change key", func(t *testing.T) {
		other := Key(models.ArtifactArticlePDF, "gemini", "gemini-2.5-flash", "",
			models.Preferences{ImageStyle: "sketch"}, digest)
		assert.NotEqual(t, base, other)
	})

	t.Run("provider case insensitive", func(t *testing.T) {
		other := Key(models.ArtifactArticlePDF, "GEMINI", "gemini-2.5-flash", "", models.Preferences{}, digest)
		assert.Equal(t, base, other)
	})
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Introduction", "introduction"},
		{"spaces and punctuation", "What's New in 2.0?", "what-s-new-in-2-0"},
		{"collapses runs", "a  --  b", "a-b"},
		{"empty falls back", "!!!", "untitled"},
		{"unicode stripped", "Café ☕ Notes", "caf-notes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.title))
		})
	}

	t.Run("length bounded", func(t *testing.T) {
		long := Slug(strings.Repeat("verylongtitle ", 20))
		assert.LessOrEqual(t, len(long), maxSlugLen)
	})
}
