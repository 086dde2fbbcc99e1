package models

// MarkerType classifies a visual marker embedded in structured markdown.
type MarkerType string

const (
	MarkerArchitecture MarkerType = "architecture"
	MarkerFlowchart    MarkerType = "flowchart"
	MarkerComparison   MarkerType = "comparison"
	MarkerConceptMap   MarkerType = "concept_map"
	MarkerMindMap      MarkerType = "mind_map"
)

// ValidMarkerType reports whether t is in the allowed enum. Markers with
// unknown types are dropped, not errored.
func ValidMarkerType(t MarkerType) bool {
	switch t {
	case MarkerArchitecture, MarkerFlowchart, MarkerComparison, MarkerConceptMap, MarkerMindMap:
		return true
	}
	return false
}

// VisualMarker is an in-markdown placeholder requesting a diagram.
type VisualMarker struct {
	MarkerID    string     `json:"marker_id"`
	Type        MarkerType `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Position    int        `json:"position"`
}

// Section is one titled unit of structured content. ID is the section's
// leading numeric prefix when present ("1. Intro" → 1), otherwise a
// sequential integer assigned in document order.
type Section struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Slide is one slide of a slide-capable artifact.
type Slide struct {
	Title        string   `json:"title"`
	Bullets      []string `json:"bullets"`
	SpeakerNotes string   `json:"speaker_notes,omitempty"`
}

// ImageType classifies a section image decision.
type ImageType string

const (
	ImageInfographic ImageType = "infographic"
	ImageDecorative  ImageType = "decorative"
	ImageDiagram     ImageType = "diagram"
	ImageChart       ImageType = "chart"
	ImageMermaid     ImageType = "mermaid"
	ImageNone        ImageType = "none"
)

// SectionImage records a generated (or deferred) image for one section.
type SectionImage struct {
	SectionID    int       `json:"section_id"`
	SectionTitle string    `json:"section_title"`
	ImageType    ImageType `json:"image_type"`
	Path         string    `json:"path,omitempty"`
	Prompt       string    `json:"prompt,omitempty"`
	Confidence   float64   `json:"confidence"`
	Description  string    `json:"description,omitempty"`
	Attempts     int       `json:"attempts"`
	EmbedBase64  string    `json:"embed_base64,omitempty"`
}

// StructuredContent is the typed transform output shared by all document
// artifacts. ContentHash equals the SHA-256 of the RawContent that produced
// it; summarization preserves the parent hash.
type StructuredContent struct {
	Title            string               `json:"title"`
	Outline          []string             `json:"outline"`
	Sections         []Section            `json:"sections"`
	Markdown         string               `json:"markdown"`
	VisualMarkers    []VisualMarker       `json:"visual_markers"`
	ExecutiveSummary string               `json:"executive_summary,omitempty"`
	Slides           []Slide              `json:"slides,omitempty"`
	SectionImages    map[int]SectionImage `json:"section_images,omitempty"`
	ContentHash      string               `json:"content_hash"`
}
