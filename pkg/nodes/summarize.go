package nodes

import (
	"context"
	"strings"

	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/llm"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

type summarizeNode struct{ base }

func newSummarizeNode(d *Deps) *summarizeNode {
	return &summarizeNode{base{name: workflow.NodeSummarizeSources, group: events.GroupParsing, deps: d}}
}

// Run produces an executive summary of the raw content. Oversized content
// is summarized map-reduce style and the summary replaces the raw content
// for downstream nodes; the content hash is deliberately left untouched so
// cache identity follows the original sources.
func (n *summarizeNode) Run(ctx context.Context, st *workflow.State) *workflow.State {
	raw := st.RawContent
	st.SetMeta("raw_content_chars", len(raw))

	if len(raw) <= n.deps.Gen.SingleChunkLimit {
		summary, err := n.summarizeChunk(ctx, st, raw)
		if err != nil {
			// Summaries are an aid, not a requirement, at this size.
			n.deps.logger().Warn("Summarization skipped", "error", err)
			return st
		}
		st.SummaryContent = summary
		st.SetMeta("summary_chars", len(summary))
		return st
	}

	chunks := splitAtParagraphs(raw, n.deps.Gen.ChunkLimit)
	var partials []string
	for _, chunk := range chunks {
		summary, err := n.summarizeChunk(ctx, st, chunk)
		if err != nil {
			n.deps.logger().Warn("Chunk summarization failed", "error", err)
			continue
		}
		if strings.TrimSpace(summary) != "" {
			partials = append(partials, summary)
		}
	}
	if len(partials) == 0 {
		n.deps.logger().Warn("Summarization produced nothing; continuing with raw content")
		return st
	}

	final := partials[0]
	if len(partials) > 1 {
		reduced, err := n.reduce(ctx, st, partials)
		if err != nil {
			n.deps.logger().Warn("Summary reduce failed; joining partials", "error", err)
			reduced = strings.Join(partials, "\n\n")
		}
		final = reduced
	}

	st.SummaryContent = final
	st.RawContent = final
	st.SetMeta("summary_chars", len(final))
	st.SetMeta("summary_generated", true)

	if st.InputPath != "" {
		if err := n.deps.Ingest.RewriteSessionSource(st.InputPath, final); err != nil {
			n.deps.logger().Warn("Failed to rewrite session source with summary", "error", err)
		}
	}
	return st
}

func (n *summarizeNode) summarizeChunk(ctx context.Context, st *workflow.State, chunk string) (string, error) {
	resp, err := n.deps.LLM.Call(ctx, llm.Request{
		Provider:     st.Provider,
		Model:        st.Model,
		SystemPrompt: summarizeSystemPrompt,
		UserPrompt:   chunk,
		StepName:     workflow.NodeSummarizeSources,
		APIKey:       st.Keys.APIKey,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func (n *summarizeNode) reduce(ctx context.Context, st *workflow.State, partials []string) (string, error) {
	resp, err := n.deps.LLM.Call(ctx, llm.Request{
		Provider:     st.Provider,
		Model:        st.Model,
		SystemPrompt: reduceSystemPrompt,
		UserPrompt:   strings.Join(partials, "\n\n---\n\n"),
		StepName:     workflow.NodeSummarizeSources,
		APIKey:       st.Keys.APIKey,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// splitAtParagraphs cuts text into chunks of at most limit bytes, breaking
// at blank lines. A single paragraph larger than the limit becomes its own
// chunk rather than being split mid-sentence.
func splitAtParagraphs(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var cur strings.Builder
	for _, p := range paragraphs {
		if cur.Len() > 0 && cur.Len()+len(p)+2 > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
