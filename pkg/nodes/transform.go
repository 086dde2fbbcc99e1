package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/llm"
	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

// structuredFileName stores the transform result inside the session tree so
// a later artifact from the same sources skips the transform call.
const structuredFileName = "structured.json"

type transformNode struct{ base }

func newTransformNode(d *Deps) *transformNode {
	return &transformNode{base{name: workflow.NodeTransformContent, group: events.GroupTransform, deps: d}}
}

func (n *transformNode) Run(ctx context.Context, st *workflow.State) *workflow.State {
	if cached := n.loadCached(st); cached != nil {
		n.deps.logger().Info("Reusing structured content", "content_hash", short(st.ContentHash))
		st.Structured = cached
		st.SetMeta("structure_reused", true)
		n.adoptTitle(st)
		return st
	}

	sc, err := n.transform(ctx, st)
	if err != nil {
		n.deps.logger().Warn("Transform falling back to deterministic cleaner", "error", err)
		sc = cleanerFallback(st)
	}

	sc.ContentHash = st.ContentHash
	normalizeSections(sc)
	sc.VisualMarkers = filterMarkers(sc.VisualMarkers)
	st.Structured = sc
	n.adoptTitle(st)
	n.persist(st)
	return st
}

// transform asks the model for the typed blog-style structure; slide-capable
// artifacts additionally request the slide deck in the same pass.
func (n *transformNode) transform(ctx context.Context, st *workflow.State) (*models.StructuredContent, error) {
	system := transformSystemPrompt
	if st.ArtifactKind.IsSlideCapable() {
		system += fmt.Sprintf(
			"\nAlso include \"slides\": [{\"title\": \"...\", \"bullets\": [\"...\"], \"speaker_notes\": \"...\"}] with at most %d slides.",
			n.maxSlides(st))
	}

	resp, err := n.deps.LLM.Call(ctx, llm.Request{
		Provider:     st.Provider,
		Model:        st.Model,
		SystemPrompt: system,
		UserPrompt:   st.RawContent,
		JSONMode:     true,
		StepName:     workflow.NodeTransformContent,
		APIKey:       st.Keys.APIKey,
	})
	if err != nil {
		return nil, err
	}

	var sc models.StructuredContent
	if err := llm.SafeJSONParse(resp.Text, &sc); err != nil {
		return nil, fmt.Errorf("structure response was not parseable JSON: %w", err)
	}
	if strings.TrimSpace(sc.Markdown) == "" && len(sc.Sections) == 0 {
		return nil, fmt.Errorf("structure response was empty")
	}
	return &sc, nil
}

func (n *transformNode) maxSlides(st *workflow.State) int {
	if st.Preferences.MaxSlides > 0 {
		return st.Preferences.MaxSlides
	}
	return n.deps.Gen.MaxSlides
}

func (n *transformNode) adoptTitle(st *workflow.State) {
	if st.Structured == nil {
		return
	}
	if st.Structured.Title == "" {
		st.Structured.Title = st.Title
	}
	if st.Structured.Title == "" {
		st.Structured.Title = "Untitled Document"
	}
	if st.Title == "" || isSyntheticTitle(st.Title) {
		st.Title = st.Structured.Title
	}
	st.SetMeta("title", st.Title)
}

func (n *transformNode) structuredPath(st *workflow.State) string {
	if st.SessionDir == "" {
		return ""
	}
	return filepath.Join(st.SessionDir, "data", structuredFileName)
}

// loadCached returns a prior StructuredContent for this session only when
// its content hash matches the current one.
func (n *transformNode) loadCached(st *workflow.State) *models.StructuredContent {
	path := n.structuredPath(st)
	if path == "" || st.ContentHash == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var sc models.StructuredContent
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil
	}
	if sc.ContentHash != st.ContentHash {
		return nil
	}
	return &sc
}

// persist is best-effort; a failed write only costs a future cache reuse.
func (n *transformNode) persist(st *workflow.State) {
	path := n.structuredPath(st)
	if path == "" || st.Structured == nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	data, err := json.MarshalIndent(st.Structured, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		n.deps.logger().Warn("Failed to persist structured content", "error", err)
	}
}

var (
	htmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)
	headingPattern     = regexp.MustCompile(`(?m)^##+\s+(.+)$`)
	sectionIDPattern   = regexp.MustCompile(`^(\d+)\.\s*(.*)$`)
)

// cleanerFallback builds a StructuredContent without any model: strip HTML
// comments and artifacts, use the raw content as markdown, and derive
// sections from headings.
func cleanerFallback(st *workflow.State) *models.StructuredContent {
	cleaned := htmlCommentPattern.ReplaceAllString(st.RawContent, "")
	cleaned = strings.TrimSpace(cleaned)

	sc := &models.StructuredContent{
		Title:    st.Title,
		Markdown: cleaned,
	}

	matches := headingPattern.FindAllStringSubmatchIndex(cleaned, -1)
	for i, m := range matches {
		title := strings.TrimSpace(cleaned[m[2]:m[3]])
		end := len(cleaned)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(cleaned[m[1]:end])
		sc.Sections = append(sc.Sections, models.Section{Title: title, Content: body})
		sc.Outline = append(sc.Outline, title)
	}
	if len(sc.Sections) == 0 {
		sc.Sections = []models.Section{{Title: firstNonEmptyLine(cleaned), Content: cleaned}}
	}
	return sc
}

// normalizeSections assigns section ids: an explicit "N." title prefix wins;
// the rest get the next unused sequential id in document order.
func normalizeSections(sc *models.StructuredContent) {
	used := map[int]bool{}
	for i := range sc.Sections {
		if m := sectionIDPattern.FindStringSubmatch(sc.Sections[i].Title); m != nil {
			if id, err := strconv.Atoi(m[1]); err == nil && id > 0 && !used[id] {
				sc.Sections[i].ID = id
				sc.Sections[i].Title = strings.TrimSpace(m[2])
				used[id] = true
				continue
			}
		}
		if sc.Sections[i].ID > 0 && !used[sc.Sections[i].ID] {
			used[sc.Sections[i].ID] = true
			continue
		}
		sc.Sections[i].ID = 0
	}
	next := 1
	for i := range sc.Sections {
		if sc.Sections[i].ID != 0 {
			continue
		}
		for used[next] {
			next++
		}
		sc.Sections[i].ID = next
		used[next] = true
	}
}

// filterMarkers drops markers with unknown types. Bad markers are not an
// error; the document renders without them.
func filterMarkers(markers []models.VisualMarker) []models.VisualMarker {
	var kept []models.VisualMarker
	for _, m := range markers {
		if models.ValidMarkerType(m.Type) {
			kept = append(kept, m)
		}
	}
	return kept
}

func isSyntheticTitle(title string) bool {
	lower := strings.ToLower(title)
	return lower == "untitled" || lower == "untitled document" || lower == "document" ||
		strings.HasPrefix(lower, "content.")
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return strings.TrimPrefix(t, "# ")
		}
	}
	return "Untitled"
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
