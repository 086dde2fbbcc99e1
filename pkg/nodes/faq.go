package nodes

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/llm"
	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

// tagColorTokens are the preset palette tokens assigned to FAQ tags. The
// assignment is deterministic: unique tags sorted, then colored in order.
var tagColorTokens = []string{"blue", "green", "purple", "orange", "teal", "rose", "amber", "slate"}

type faqNode struct{ base }

func newFAQNode(d *Deps) *faqNode {
	return &faqNode{base{name: workflow.NodeFAQ, group: events.GroupTransform, deps: d}}
}

// Run extracts a FAQ from the ingested content and writes it as the session's
// data artifact.
func (n *faqNode) Run(ctx context.Context, st *workflow.State) *workflow.State {
	resp, err := n.deps.LLM.Call(ctx, llm.Request{
		Provider:     st.Provider,
		Model:        st.Model,
		SystemPrompt: faqSystemPrompt,
		UserPrompt:   st.RawContent,
		JSONMode:     true,
		StepName:     workflow.NodeFAQ,
		APIKey:       st.Keys.APIKey,
	})
	if err != nil {
		st.AddError(llmErrorCode(err), "faq generation failed: %v", err)
		return st
	}

	var data models.FAQData
	if err := llm.SafeJSONParse(resp.Text, &data); err != nil {
		st.AddError(models.ErrGenerationFailed, "Generation failed: faq response was not valid JSON: %v", err)
		return st
	}
	if len(data.Items) == 0 {
		st.AddError(models.ErrGenerationFailed, "Generation failed: faq response has no items")
		return st
	}

	normalizeFAQ(&data, st.Title)

	path, err := writeDataArtifact(st, &data)
	if err != nil {
		st.AddError(models.ErrInternal, "writing faq: %v", err)
		return st
	}

	st.FAQData = &data
	st.OutputPath = path
	st.SetMeta("faq_items", len(data.Items))
	st.Completed = true
	return st
}

// normalizeFAQ fills missing item ids and assigns the tag color map.
func normalizeFAQ(data *models.FAQData, fallbackTitle string) {
	if data.Title == "" {
		data.Title = fallbackTitle
	}
	for i := range data.Items {
		if strings.TrimSpace(data.Items[i].ID) == "" {
			data.Items[i].ID = fmt.Sprintf("faq-%d", i)
		}
	}
	data.TagColors = assignTagColors(data.Items)
}

// assignTagColors maps each unique tag to a palette token. Sorting first makes
// the assignment stable across runs regardless of item order.
func assignTagColors(items []models.FAQItem) map[string]string {
	unique := map[string]bool{}
	for _, item := range items {
		for _, tag := range item.Tags {
			if t := strings.TrimSpace(tag); t != "" {
				unique[t] = true
			}
		}
	}
	if len(unique) == 0 {
		return nil
	}
	tags := make([]string, 0, len(unique))
	for t := range unique {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	colors := make(map[string]string, len(tags))
	for i, t := range tags {
		colors[t] = tagColorTokens[i%len(tagColorTokens)]
	}
	return colors
}
