package ingest

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/docgen-ai/docgen/pkg/models"
)

// Document is the canonical result of parsing one source.
type Document struct {
	Markdown  string
	Title     string
	PageCount int
}

// Parser converts raw source bytes of one format into canonical markdown.
// Implementations for binary formats (PDF, DOCX) plug in externally; the
// built-in registry covers the textual formats.
type Parser interface {
	Parse(ctx context.Context, data []byte, name string) (*Document, error)
}

// ParserRegistry maps input formats to parsers. Safe for concurrent use.
type ParserRegistry struct {
	mu      sync.RWMutex
	parsers map[InputFormat]Parser
}

// NewParserRegistry returns a registry pre-populated with the built-in
// textual parsers.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		parsers: map[InputFormat]Parser{
			FormatMarkdown: textParser{},
			FormatText:     textParser{},
			FormatHTML:     htmlParser{},
			FormatUnknown:  textParser{},
		},
	}
}

// Register installs (or replaces) the parser for a format.
func (r *ParserRegistry) Register(format InputFormat, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[format] = p
}

// Get returns the parser for a format.
func (r *ParserRegistry) Get(format InputFormat) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[format]
	return p, ok
}

// Parse routes data through the registered parser for its format.
func (r *ParserRegistry) Parse(ctx context.Context, format InputFormat, data []byte, name string) (*Document, error) {
	p, ok := r.Get(format)
	if !ok {
		return nil, models.NewError(models.ErrParseFailed, "no parser registered for %s format", format)
	}
	doc, err := p.Parse(ctx, data, name)
	if err != nil {
		return nil, models.WrapError(models.ErrParseFailed, err, "parsing %s source %q", format, name)
	}
	return doc, nil
}

// textParser passes markdown and plain text through, extracting the title
// from the first heading when present.
type textParser struct{}

func (textParser) Parse(_ context.Context, data []byte, _ string) (*Document, error) {
	content := strings.TrimSpace(string(data))
	return &Document{Markdown: content, Title: firstHeading(content)}, nil
}

var (
	htmlTagPattern    = regexp.MustCompile(`(?s)<(script|style)[^>]*>.*?</(script|style)>|<[^>]+>`)
	htmlTitlePattern  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// htmlParser strips tags and collapses whitespace. It is deliberately
// simple; richly formatted pages lose layout but keep their text.
type htmlParser struct{}

func (htmlParser) Parse(_ context.Context, data []byte, _ string) (*Document, error) {
	raw := string(data)
	title := ""
	if m := htmlTitlePattern.FindStringSubmatch(raw); m != nil {
		title = strings.TrimSpace(m[1])
	}
	text := htmlTagPattern.ReplaceAllString(raw, "\n")
	text = blankLinesPattern.ReplaceAllString(text, "\n\n")
	return &Document{Markdown: strings.TrimSpace(text), Title: title}, nil
}

// firstHeading returns the text of the first markdown heading, or "".
func firstHeading(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		}
	}
	return ""
}
