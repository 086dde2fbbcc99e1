package nodes

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/docgen-ai/docgen/pkg/cache"
	"github.com/docgen-ai/docgen/pkg/config"
	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/llm"
	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

type mindMapNode struct{ base }

func newMindMapNode(d *Deps) *mindMapNode {
	return &mindMapNode{base{name: workflow.NodeMindMap, group: events.GroupTransform, deps: d}}
}

// Run extracts a mind-map tree from the ingested content. Structurally
// invalid responses are retried down the provider's model list before
// giving up, since smaller models tend to recover the shape.
func (n *mindMapNode) Run(ctx context.Context, st *workflow.State) *workflow.State {
	tree, err := n.extract(ctx, st)
	if err != nil {
		st.AddError(llmErrorCode(err), "mind map generation failed: %v", err)
		return st
	}

	path, err := writeDataArtifact(st, tree)
	if err != nil {
		st.AddError(models.ErrInternal, "writing mind map: %v", err)
		return st
	}

	st.MindMapTree = tree
	st.OutputPath = path
	st.SetMeta("mindmap_branches", len(tree.Central.Children))
	st.Completed = true
	return st
}

func (n *mindMapNode) extract(ctx context.Context, st *workflow.State) (*models.MindMapTree, error) {
	var lastErr error
	for _, model := range mindMapModels(n.deps.Providers, st.Provider, st.Model) {
		resp, err := n.deps.LLM.Call(ctx, llm.Request{
			Provider:     st.Provider,
			Model:        model,
			SystemPrompt: mindmapSystemPrompt,
			UserPrompt:   st.RawContent,
			JSONMode:     true,
			StepName:     workflow.NodeMindMap,
			APIKey:       st.Keys.APIKey,
		})
		if err != nil {
			return nil, err
		}

		tree, err := parseMindMap(resp.Text, st.Title)
		if err == nil {
			return tree, nil
		}
		lastErr = err
		n.deps.logger().Warn("Mind map response malformed; trying next model",
			"model", model, "error", err)
	}
	return nil, models.NewError(models.ErrGenerationFailed,
		"Generation failed: no model produced a valid mind map: %v", lastErr)
}

// mindMapModels is the ordered candidate list: the caller's model first, then
// the provider's curated fallbacks.
func mindMapModels(reg *config.ProviderRegistry, t config.ProviderType, primary string) []string {
	models := []string{primary}
	if pc := providerByType(reg, t); pc != nil {
		models = append(models, pc.FallbackModels...)
	}
	seen := map[string]bool{}
	out := models[:0]
	for _, m := range models {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// parseMindMap decodes the response, tolerating a missing central_node by
// promoting top-level children under a synthesized root.
func parseMindMap(text, fallbackTitle string) (*models.MindMapTree, error) {
	var tree models.MindMapTree
	if err := llm.SafeJSONParse(text, &tree); err != nil {
		return nil, err
	}
	if tree.Central.Label == "" && len(tree.Central.Children) == 0 {
		// Some models emit the node list at the top level instead.
		var flat struct {
			Title    string               `json:"title"`
			Summary  string               `json:"summary"`
			Children []models.MindMapNode `json:"children"`
			Nodes    []models.MindMapNode `json:"nodes"`
		}
		if err := llm.SafeJSONParse(text, &flat); err != nil {
			return nil, err
		}
		children := flat.Children
		if len(children) == 0 {
			children = flat.Nodes
		}
		if len(children) == 0 {
			return nil, models.NewError(models.ErrGenerationFailed, "mind map has no nodes")
		}
		tree.Title = firstNonEmpty(tree.Title, flat.Title)
		tree.Summary = firstNonEmpty(tree.Summary, flat.Summary)
		tree.Central = models.MindMapNode{
			Label:    firstNonEmpty(tree.Title, fallbackTitle, "Mind Map"),
			Children: children,
		}
	}
	if tree.Title == "" {
		tree.Title = firstNonEmpty(tree.Central.Label, fallbackTitle, "Mind Map")
	}
	return &tree, nil
}

func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}

// writeDataArtifact stores a JSON artifact under the session data tree and
// returns its path.
func writeDataArtifact(st *workflow.State, v any) (string, error) {
	dir := filepath.Join(st.SessionDir, st.ArtifactKind.Subdir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	title := st.Title
	if title == "" {
		title = string(st.ArtifactKind)
	}
	path := filepath.Join(dir, cache.Slug(title)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
