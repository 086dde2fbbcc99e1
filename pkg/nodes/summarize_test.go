package nodes

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

func TestSummarizeNode_SmallContentKeepsRaw(t *testing.T) {
	f := newFakeLLM()
	f.respond(workflow.NodeSummarizeSources, "a short summary")
	d := testDeps(t, f)
	st := testState(t, models.ArtifactArticlePDF)
	raw := st.RawContent
	hash := st.ContentHash

	st = newSummarizeNode(d).Run(t.Context(), st)

	assert.Empty(t, st.Errors)
	assert.Equal(t, "a short summary", st.SummaryContent)
	assert.Equal(t, raw, st.RawContent, "small content stays intact")
	assert.Equal(t, hash, st.ContentHash)
}

func TestSummarizeNode_SmallContentFailureIsNonFatal(t *testing.T) {
	f := newFakeLLM()
	f.fail(workflow.NodeSummarizeSources, errors.New("provider down"))
	d := testDeps(t, f)
	st := testState(t, models.ArtifactArticlePDF)
	raw := st.RawContent

	st = newSummarizeNode(d).Run(t.Context(), st)

	assert.Empty(t, st.Errors)
	assert.Empty(t, st.SummaryContent)
	assert.Equal(t, raw, st.RawContent)
}

func TestSummarizeNode_OversizedMapReduce(t *testing.T) {
	f := newFakeLLM()
	f.respond(workflow.NodeSummarizeSources, "part one", "part two", "the reduced summary")
	d := testDeps(t, f)
	d.Gen.SingleChunkLimit = 20
	d.Gen.ChunkLimit = 40

	st := testState(t, models.ArtifactArticlePDF)
	st.RawContent = strings.Repeat("alpha ", 6) + "\n\n" + strings.Repeat("beta ", 6)
	hash := st.ContentHash

	st = newSummarizeNode(d).Run(t.Context(), st)

	require.Empty(t, st.Errors)
	assert.Equal(t, "the reduced summary", st.SummaryContent)
	assert.Equal(t, "the reduced summary", st.RawContent, "summary replaces oversized raw content")
	assert.Equal(t, hash, st.ContentHash, "cache identity follows the original sources")
	assert.Equal(t, true, st.Metadata["summary_generated"])
	assert.Equal(t, 3, f.count(workflow.NodeSummarizeSources), "two chunks plus one reduce")
}

func TestSplitAtParagraphs(t *testing.T) {
	t.Run("under limit stays whole", func(t *testing.T) {
		chunks := splitAtParagraphs("one\n\ntwo", 100)
		assert.Equal(t, []string{"one\n\ntwo"}, chunks)
	})

	t.Run("splits at blank lines", func(t *testing.T) {
		text := strings.Repeat("a", 30) + "\n\n" + strings.Repeat("b", 30) + "\n\n" + strings.Repeat("c", 30)
		chunks := splitAtParagraphs(text, 40)
		require.Len(t, chunks, 3)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), 40)
		}
	})

	t.Run("oversized paragraph becomes its own chunk", func(t *testing.T) {
		big := strings.Repeat("x", 120)
		chunks := splitAtParagraphs("small\n\n"+big, 50)
		require.Len(t, chunks, 2)
		assert.Equal(t, "small", chunks[0])
		assert.Equal(t, big, chunks[1])
	})
}
