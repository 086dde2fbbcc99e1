package nodes

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

type imageGenerateNode struct{ base }

func newImageGenerateNode(d *Deps) *imageGenerateNode {
	return &imageGenerateNode{base{name: workflow.NodeImageGenerate, group: events.GroupImages, deps: d}}
}

// Run synthesizes a single standalone image from the request prompt. This
// branch has no ingestion; the prompt is the whole input.
func (n *imageGenerateNode) Run(ctx context.Context, st *workflow.State) *workflow.State {
	if strings.TrimSpace(st.Prompt) == "" {
		st.AddError(models.ErrUnsupportedSource, "image generation requires a prompt")
		return st
	}

	key := st.Keys.ImageAPIKey
	if key == "" {
		key = st.Keys.APIKey
	}
	model := st.ImageModel
	if model == "" {
		if pc := providerByType(n.deps.Providers, st.Provider); pc != nil {
			model = pc.ImageModel
		}
	}
	if model == "" {
		st.AddError(models.ErrLLMUnavailable, "no image model configured")
		return st
	}

	data, err := n.deps.GenImage(ctx, key, model, st.Prompt)
	if err != nil {
		st.AddError(llmErrorCode(err), "image generation failed: %v", err)
		return st
	}

	finishImage(st, data, model)
	return st
}

type imageEditNode struct{ base }

func newImageEditNode(d *Deps) *imageEditNode {
	return &imageEditNode{base{name: workflow.NodeImageEdit, group: events.GroupImages, deps: d}}
}

// Run applies the prompt as an edit instruction over the supplied source
// image.
func (n *imageEditNode) Run(ctx context.Context, st *workflow.State) *workflow.State {
	if len(st.SourceImage) == 0 {
		st.AddError(models.ErrUnsupportedSource, "image edit requires a source image")
		return st
	}
	if strings.TrimSpace(st.Prompt) == "" {
		st.AddError(models.ErrUnsupportedSource, "image edit requires a prompt")
		return st
	}

	key := st.Keys.ImageAPIKey
	if key == "" {
		key = st.Keys.APIKey
	}
	model := st.ImageModel
	if model == "" {
		st.AddError(models.ErrLLMUnavailable, "no image edit model configured")
		return st
	}

	data, err := n.deps.EditImage(ctx, key, model, st.Prompt, st.SourceImage)
	if err != nil {
		st.AddError(llmErrorCode(err), "image edit failed: %v", err)
		return st
	}

	finishImage(st, data, model)
	return st
}

// finishImage writes the raster into the session tree and records the result.
func finishImage(st *workflow.State, data []byte, model string) {
	dir := filepath.Join(st.SessionDir, st.ArtifactKind.Subdir())
	title := promptSlugTitle(st.Prompt)
	path, err := writeImageFile(dir, title, data)
	if err != nil {
		st.AddError(models.ErrInternal, "writing image: %v", err)
		return
	}

	st.ImageData = &models.ImageData{Path: path, Prompt: st.Prompt, Model: model}
	st.OutputPath = path
	st.SetMeta("image_bytes", len(data))
	st.Completed = true
}

// promptSlugTitle derives a short filename stem from the prompt.
func promptSlugTitle(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 6 {
		words = words[:6]
	}
	if len(words) == 0 {
		return "image"
	}
	return strings.Join(words, " ")
}
