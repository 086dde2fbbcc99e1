package e2e

import (
	"context"
	"os"

	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/render"
)

// flakyRenderer writes an empty artifact on its first call and behaves
// normally afterwards, to exercise the generate/validate retry pair.
type flakyRenderer struct {
	calls int
	real  render.MarkdownRenderer
}

func newFlakyRenderer() *flakyRenderer { return &flakyRenderer{} }

func (f *flakyRenderer) Render(ctx context.Context, in render.Input) (string, error) {
	f.calls++
	if f.calls == 1 {
		path := render.OutputPath(in.OutDir, in.Structured.Title, in.Kind)
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return "", err
		}
		return path, nil
	}
	return f.real.Render(ctx, in)
}

func (f *flakyRenderer) registry() *render.Registry {
	r := render.NewRegistry()
	r.Register(models.ArtifactArticleMarkdown, f)
	return r
}
