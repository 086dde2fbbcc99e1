package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

const faqResponse = `{
  "title": "Common Questions",
  "items": [
    {"question": "What is it?", "answer": "A thing.", "tags": ["basics"]},
    {"id": "custom-id", "question": "How does it work?", "answer": "Well.", "tags": ["internals", "basics"]}
  ]
}`

func TestFAQNode(t *testing.T) {
	f := newFakeLLM()
	f.respond(workflow.NodeFAQ, faqResponse)
	d := testDeps(t, f)
	st := testState(t, models.ArtifactFAQ)

	st = newFAQNode(d).Run(t.Context(), st)

	require.Empty(t, st.Errors)
	require.NotNil(t, st.FAQData)
	require.Len(t, st.FAQData.Items, 2)
	assert.Equal(t, "faq-0", st.FAQData.Items[0].ID, "missing ids are filled by index")
	assert.Equal(t, "custom-id", st.FAQData.Items[1].ID, "supplied ids are kept")
	assert.True(t, st.Completed)
	assert.FileExists(t, st.OutputPath)

	// Tags sorted: basics, internals → first two palette tokens.
	assert.Equal(t, map[string]string{
		"basics":    tagColorTokens[0],
		"internals": tagColorTokens[1],
	}, st.FAQData.TagColors)
}

func TestFAQNode_EmptyItems(t *testing.T) {
	f := newFakeLLM()
	f.respond(workflow.NodeFAQ, `{"title": "x", "items": []}`)
	d := testDeps(t, f)
	st := testState(t, models.ArtifactFAQ)

	st = newFAQNode(d).Run(t.Context(), st)

	require.NotNil(t, st.LastError())
	assert.Equal(t, models.ErrGenerationFailed, st.LastError().Code)
}

func TestAssignTagColors_Deterministic(t *testing.T) {
	a := assignTagColors([]models.FAQItem{
		{Tags: []string{"zeta", "alpha"}},
		{Tags: []string{"mid"}},
	})
	b := assignTagColors([]models.FAQItem{
		{Tags: []string{"mid"}},
		{Tags: []string{"alpha", "zeta"}},
	})
	assert.Equal(t, a, b, "assignment ignores item and tag order")
	assert.Equal(t, tagColorTokens[0], a["alpha"])
}

func TestAssignTagColors_NoTags(t *testing.T) {
	assert.Nil(t, assignTagColors([]models.FAQItem{{Question: "q"}}))
}
