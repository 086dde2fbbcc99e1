package models

// SourceType tags the variant of a Source.
type SourceType string

const (
	SourceFile SourceType = "file"
	SourceURL  SourceType = "url"
	SourceText SourceType = "text"
)

// Source is one input to ingestion. Exactly one payload field is set
// depending on Type. Sources are read-only once supplied.
type Source struct {
	Type SourceType `json:"type"`

	// FileID references a previously uploaded file (SourceFile).
	FileID string `json:"file_id,omitempty"`

	// URL plus an optional parser hint (SourceURL).
	URL        string `json:"url,omitempty"`
	ParserHint string `json:"parser_hint,omitempty"`

	// Text is inline markdown/plain text (SourceText).
	Text string `json:"text,omitempty"`
}

// Payload returns the bytes that identify this source for digesting.
func (s Source) Payload() []byte {
	switch s.Type {
	case SourceFile:
		return []byte(s.FileID)
	case SourceURL:
		return []byte(s.URL)
	default:
		return []byte(s.Text)
	}
}
