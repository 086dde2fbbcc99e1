package nodes

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/render"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

type generateOutputNode struct{ base }

func newGenerateOutputNode(d *Deps) *generateOutputNode {
	return &generateOutputNode{base{name: workflow.NodeGenerateOutput, group: events.GroupOutput, deps: d}}
}

// Run renders the artifact file for the requested kind. Failures are recorded
// as retryable generation errors; the retry pair around validation re-enters
// here.
func (n *generateOutputNode) Run(ctx context.Context, st *workflow.State) *workflow.State {
	path, err := n.deps.Renderers.Render(ctx, render.Input{
		Kind:        st.ArtifactKind,
		Structured:  st.Structured,
		OutDir:      filepath.Join(st.SessionDir, st.ArtifactKind.Subdir()),
		EmbedImages: st.Preferences.EmbedImages,
	})
	if err != nil {
		st.AddError(models.ErrGenerationFailed, "Generation failed: %v", err)
		return st
	}
	st.OutputPath = path
	st.SetMeta("output_path", path)
	return st
}

type validateOutputNode struct{ base }

func newValidateOutputNode(d *Deps) *validateOutputNode {
	return &validateOutputNode{base{name: workflow.NodeValidateOutput, group: events.GroupOutput, deps: d}}
}

// Run checks the rendered file on disk. Validation failures are retryable:
// the workflow routes back to generate_output within the retry budget.
func (n *validateOutputNode) Run(_ context.Context, st *workflow.State) *workflow.State {
	if err := render.Validate(st.OutputPath, st.ArtifactKind); err != nil {
		code := models.ErrGenerationFailed
		if strings.Contains(err.Error(), "Validation failed") {
			code = models.ErrValidationFailed
		}
		st.AddError(code, "%v", err)
		return st
	}
	st.Completed = true
	return st
}
