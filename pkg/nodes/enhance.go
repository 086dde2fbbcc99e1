package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/llm"
	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

type enhanceNode struct{ base }

func newEnhanceNode(d *Deps) *enhanceNode {
	return &enhanceNode{base{name: workflow.NodeEnhanceContent, group: events.GroupTransform, deps: d}}
}

// Run fills in what the transform left out: an executive summary, and for
// slide-capable artifacts the slide structure. Slides are mandatory for
// those kinds, so exhausted attempts surface a retryable error.
func (n *enhanceNode) Run(ctx context.Context, st *workflow.State) *workflow.State {
	sc := st.Structured
	if sc == nil {
		st.AddError(models.ErrInternal, "enhance reached without structured content")
		return st
	}

	if sc.ExecutiveSummary == "" {
		n.generateSummary(ctx, st)
	}

	if st.ArtifactKind.IsSlideCapable() && len(sc.Slides) == 0 {
		n.generateSlides(ctx, st)
	}
	return st
}

func (n *enhanceNode) generateSummary(ctx context.Context, st *workflow.State) {
	// Reuse the summarization output when present; it is already an
	// executive summary of the same content.
	if st.SummaryContent != "" && len(st.SummaryContent) < 2000 {
		st.Structured.ExecutiveSummary = st.SummaryContent
		return
	}

	resp, err := n.deps.LLM.Call(ctx, llm.Request{
		Provider:     st.Provider,
		Model:        st.Model,
		SystemPrompt: executiveSummarySystemPrompt,
		UserPrompt:   st.Structured.Markdown,
		StepName:     workflow.NodeEnhanceContent,
		APIKey:       st.Keys.APIKey,
	})
	if err != nil {
		// A missing summary degrades the document but doesn't block it.
		n.deps.logger().Warn("Executive summary generation failed", "error", err)
		return
	}
	st.Structured.ExecutiveSummary = strings.TrimSpace(resp.Text)
}

func (n *enhanceNode) generateSlides(ctx context.Context, st *workflow.State) {
	attempts := n.deps.Gen.MaxSlideAttempts
	if attempts <= 0 {
		attempts = 1
	}
	maxSlides := st.Preferences.MaxSlides
	if maxSlides <= 0 {
		maxSlides = n.deps.Gen.MaxSlides
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		slides, err := n.requestSlides(ctx, st, maxSlides)
		if err == nil && len(slides) > 0 {
			if len(slides) > maxSlides && maxSlides > 0 {
				slides = slides[:maxSlides]
			}
			st.Structured.Slides = slides
			st.SetMeta("slide_count", len(slides))
			return
		}
		lastErr = err
		n.deps.logger().Warn("Slide generation attempt failed",
			"attempt", attempt, "max", attempts, "error", err)
	}

	st.AddError(models.ErrGenerationFailed,
		"Generation failed: no slide structure after %d attempts: %v", attempts, lastErr)
}

func (n *enhanceNode) requestSlides(ctx context.Context, st *workflow.State, maxSlides int) ([]models.Slide, error) {
	system := slideSystemPrompt
	if maxSlides > 0 {
		system += fmt.Sprintf(" Produce at most %d slides.", maxSlides)
	}
	resp, err := n.deps.LLM.Call(ctx, llm.Request{
		Provider:     st.Provider,
		Model:        st.Model,
		SystemPrompt: system,
		UserPrompt:   st.Structured.Markdown,
		JSONMode:     true,
		StepName:     workflow.NodeEnhanceContent,
		APIKey:       st.Keys.APIKey,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Slides []models.Slide `json:"slides"`
	}
	if err := llm.SafeJSONParse(resp.Text, &payload); err != nil {
		return nil, err
	}
	return payload.Slides, nil
}
