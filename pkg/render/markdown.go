package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MarkdownRenderer writes the structured markdown, with generated section
// images referenced (or the deferred mermaid blocks kept as-is).
type MarkdownRenderer struct{}

// Render writes <slug>.md and returns its path.
func (r *MarkdownRenderer) Render(_ context.Context, in Input) (string, error) {
	sc := in.Structured
	content := sc.Markdown
	if strings.TrimSpace(content) == "" {
		content = fallbackMarkdown(in)
	}
	content = appendImageReferences(content, in)

	path := OutputPath(in.OutDir, sc.Title, in.Kind)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing markdown artifact: %w", err)
	}
	return path, nil
}

// fallbackMarkdown rebuilds a document from sections when the transform
// produced no markdown body.
func fallbackMarkdown(in Input) string {
	sc := in.Structured
	var sb strings.Builder
	if sc.Title != "" {
		sb.WriteString("# " + sc.Title + "\n\n")
	}
	for _, sec := range sc.Sections {
		fmt.Fprintf(&sb, "## %d. %s\n\n%s\n\n", sec.ID, sec.Title, sec.Content)
	}
	return strings.TrimSpace(sb.String())
}

// appendImageReferences adds generated images after their section headings.
// Sections without an image are untouched.
func appendImageReferences(content string, in Input) string {
	if len(in.Structured.SectionImages) == 0 {
		return content
	}

	ids := make([]int, 0, len(in.Structured.SectionImages))
	for id := range in.Structured.SectionImages {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	lines := strings.Split(content, "\n")
	var out []string
	for _, line := range lines {
		out = append(out, line)
		for _, id := range ids {
			img := in.Structured.SectionImages[id]
			if img.Path == "" || !isHeadingFor(line, img.SectionTitle) {
				continue
			}
			out = append(out, "", fmt.Sprintf("![%s](%s)", img.SectionTitle, filepath.Base(img.Path)))
		}
	}
	return strings.Join(out, "\n")
}

// isHeadingFor matches a markdown heading line against a section title,
// ignoring heading level and an optional "N." numeric prefix.
func isHeadingFor(line, sectionTitle string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	heading := strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
	heading = TrimSectionPrefix(heading)
	return strings.EqualFold(heading, strings.TrimSpace(sectionTitle))
}

// TrimSectionPrefix strips a leading "N." section number from a title.
func TrimSectionPrefix(title string) string {
	i := 0
	for i < len(title) && title[i] >= '0' && title[i] <= '9' {
		i++
	}
	if i > 0 && i < len(title) && title[i] == '.' {
		return strings.TrimSpace(title[i+1:])
	}
	return strings.TrimSpace(title)
}
