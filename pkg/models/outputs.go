package models

// DialogueLine is one speaker turn in a podcast script.
type DialogueLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// PodcastScript is the JSON-mode transcript produced before synthesis.
type PodcastScript struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Dialogue    []DialogueLine `json:"dialogue"`
}

// PodcastAudio is the synthesized result.
type PodcastAudio struct {
	Path            string  `json:"path"`
	AudioBase64     string  `json:"audio_base64,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// MindMapNode is one node of the mind-map tree.
type MindMapNode struct {
	Label    string        `json:"label"`
	Children []MindMapNode `json:"children,omitempty"`
}

// MindMapTree is the root artifact of the mind-map branch.
type MindMapTree struct {
	Title   string      `json:"title"`
	Summary string      `json:"summary,omitempty"`
	Central MindMapNode `json:"central_node"`
}

// FAQItem is one question/answer pair.
type FAQItem struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Tags     []string `json:"tags,omitempty"`
}

// FAQData is the FAQ branch artifact. TagColors maps each unique tag to one
// of the preset color tokens, assigned deterministically in sorted tag order.
type FAQData struct {
	Title     string            `json:"title,omitempty"`
	Items     []FAQItem         `json:"items"`
	TagColors map[string]string `json:"tag_colors,omitempty"`
}

// ImageData is the single-image branch artifact.
type ImageData struct {
	Path   string `json:"path"`
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

// Preferences are the caller-tunable generation options that participate in
// the cache key. Zero values mean "server default".
type Preferences struct {
	ImageStyle              string   `json:"image_style,omitempty"`
	EnableInfographics      *bool    `json:"enable_infographics,omitempty"`
	EnableDecorativeHeaders *bool    `json:"enable_decorative_headers,omitempty"`
	EnableDiagrams          *bool    `json:"enable_diagrams,omitempty"`
	MaxSlides               int      `json:"max_slides,omitempty"`
	TargetMinutes           int      `json:"target_minutes,omitempty"`
	Speakers                []string `json:"speakers,omitempty"`
	EmbedImages             bool     `json:"embed_images,omitempty"`
}
