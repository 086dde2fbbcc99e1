package nodes

import (
	"context"
	"strings"

	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/ingest"
	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

type detectFormatNode struct{ base }

func newDetectFormatNode(d *Deps) *detectFormatNode {
	return &detectFormatNode{base{name: workflow.NodeDetectFormat, group: events.GroupParsing, deps: d}}
}

// Run pins down the canonical input format. Ingestion already classified
// each source; this node validates the result against the document branch.
func (n *detectFormatNode) Run(_ context.Context, st *workflow.State) *workflow.State {
	format := ingest.InputFormat(st.InputFormat)
	if format == "" && st.InputPath != "" {
		format = ingest.DetectFormat(st.InputPath, "")
	}
	if format == "" {
		format = ingest.FormatMarkdown
	}

	switch format {
	case ingest.FormatSpreadsheet:
		st.AddError(models.ErrUnsupportedSource, "spreadsheet input cannot be rendered as a document")
	case ingest.FormatUnknown:
		// Unknown but already extracted to text upstream; treat as markdown.
		format = ingest.FormatMarkdown
	}

	st.InputFormat = string(format)
	st.SetMeta("input_format", st.InputFormat)
	return st
}

type parseDocumentNode struct{ base }

func newParseDocumentNode(d *Deps) *parseDocumentNode {
	return &parseDocumentNode{base{name: workflow.NodeParseDocument, group: events.GroupParsing, deps: d}}
}

// Run finalizes parsing: verifies extracted content exists and fixes the
// content hash for cache identity.
func (n *parseDocumentNode) Run(_ context.Context, st *workflow.State) *workflow.State {
	if strings.TrimSpace(st.RawContent) == "" {
		st.AddError(models.ErrParseFailed, "no textual content extracted from sources")
		return st
	}
	if st.ContentHash == "" {
		st.ContentHash = ingest.HashContent(st.RawContent)
	}
	if st.Title != "" {
		st.SetMeta("title", st.Title)
	}
	return st
}
