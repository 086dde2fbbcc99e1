package nodes

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
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

// defaultImageStyle applies when the request does not pin a style. It is part
// of the image-cache identity, so changing it invalidates cached images.
const defaultImageStyle = "clean, modern, professional illustration"

type generateImagesNode struct{ base }

func newGenerateImagesNode(d *Deps) *generateImagesNode {
	return &generateImagesNode{base{name: workflow.NodeGenerateImages, group: events.GroupImages, deps: d}}
}

// Run decides per section whether an image is worthwhile and synthesizes the
// approved ones. Image failures degrade the document; they never fail the run.
func (n *generateImagesNode) Run(ctx context.Context, st *workflow.State) *workflow.State {
	if st.Structured == nil || len(st.Structured.Sections) == 0 {
		return st
	}
	dir := n.imagesDir(st)
	style := imageStyle(st)

	if cached := n.deps.Store.LoadImages(dir, st.ContentHash, style); cached != nil {
		n.deps.logger().Info("Reusing cached section images",
			"count", len(cached), "content_hash", short(st.ContentHash))
		st.Structured.SectionImages = cached
		st.SetMeta("images_reused", true)
		return st
	}

	flags := imageFlags(st.Preferences, n.deps.Gen)
	images := make(map[int]models.SectionImage, len(st.Structured.Sections))
	for _, sec := range st.Structured.Sections {
		if ctx.Err() != nil {
			break
		}
		img := n.decideAndGenerate(ctx, st, sec, dir, style, flags)
		images[sec.ID] = img
	}
	st.Structured.SectionImages = images
	st.SetMeta("images_generated", countGenerated(images))
	return st
}

func (n *generateImagesNode) imagesDir(st *workflow.State) string {
	return filepath.Join(st.SessionDir, "images")
}

// decideAndGenerate asks the model whether the section needs an image, then
// synthesizes it when the decision passes the enabled feature flags. Mermaid
// decisions are recorded but not rendered; that stays a client-side concern.
func (n *generateImagesNode) decideAndGenerate(ctx context.Context, st *workflow.State, sec models.Section, dir, style string, flags featureFlags) models.SectionImage {
	img := models.SectionImage{SectionID: sec.ID, SectionTitle: sec.Title, ImageType: models.ImageNone}

	decision, err := n.decide(ctx, st, sec)
	if err != nil {
		n.deps.logger().Warn("Image decision failed; section gets no image",
			"section_id", sec.ID, "error", err)
		return img
	}
	img.ImageType = decision.ImageType
	img.Prompt = decision.Prompt
	img.Confidence = decision.Confidence

	if !flags.allows(decision.ImageType) {
		img.ImageType = models.ImageNone
		img.Prompt = ""
		return img
	}
	if decision.ImageType == models.ImageNone || decision.ImageType == models.ImageMermaid {
		return img
	}

	prompt := decision.Prompt
	if style != "" {
		prompt = prompt + ". Style: " + style
	}
	data, attempts, err := n.synthesize(ctx, st, prompt)
	img.Attempts = attempts
	if err != nil {
		n.deps.logger().Warn("Image generation failed; section continues without image",
			"section_id", sec.ID, "attempts", attempts, "error", err)
		img.ImageType = models.ImageNone
		return img
	}

	path, err := writeImageFile(dir, sec.Title, data)
	if err != nil {
		n.deps.logger().Warn("Failed to write image file", "section_id", sec.ID, "error", err)
		img.ImageType = models.ImageNone
		return img
	}
	img.Path = path
	return img
}

type imageDecision struct {
	ImageType  models.ImageType `json:"image_type"`
	Prompt     string           `json:"prompt"`
	Confidence float64          `json:"confidence"`
}

func (n *generateImagesNode) decide(ctx context.Context, st *workflow.State, sec models.Section) (*imageDecision, error) {
	resp, err := n.deps.LLM.Call(ctx, llm.Request{
		Provider:     st.Provider,
		Model:        st.Model,
		SystemPrompt: imageDecisionSystemPrompt,
		UserPrompt:   fmt.Sprintf("Section: %s\n\n%s", sec.Title, sec.Content),
		JSONMode:     true,
		StepName:     workflow.NodeGenerateImages,
		APIKey:       st.Keys.APIKey,
	})
	if err != nil {
		return nil, err
	}
	var d imageDecision
	if err := llm.SafeJSONParse(resp.Text, &d); err != nil {
		return nil, err
	}
	switch d.ImageType {
	case models.ImageInfographic, models.ImageDecorative, models.ImageDiagram,
		models.ImageChart, models.ImageMermaid, models.ImageNone:
	default:
		d.ImageType = models.ImageNone
	}
	return &d, nil
}

// synthesize calls the image model under the configured timeout, falling back
// once to the faster model when the primary times out or fails.
func (n *generateImagesNode) synthesize(ctx context.Context, st *workflow.State, prompt string) ([]byte, int, error) {
	key := st.Keys.ImageAPIKey
	if key == "" {
		key = st.Keys.APIKey
	}
	model := st.ImageModel
	pc := providerByType(n.deps.Providers, st.Provider)
	if model == "" && pc != nil {
		model = pc.ImageModel
	}
	if model == "" {
		return nil, 0, errors.New("no image model configured")
	}

	data, err := n.callWithTimeout(ctx, key, model, prompt)
	if err == nil {
		return data, 1, nil
	}
	if ctx.Err() != nil {
		return nil, 1, ctx.Err()
	}

	fallback := ""
	if pc != nil {
		fallback = pc.ImageFallbackModel
	}
	if fallback == "" || fallback == model {
		return nil, 1, err
	}
	n.deps.logger().Warn("Image model failed; retrying with fallback",
		"model", model, "fallback", fallback, "error", err)
	data, ferr := n.callWithTimeout(ctx, key, fallback, prompt)
	if ferr != nil {
		return nil, 2, fmt.Errorf("primary %s: %v; fallback %s: %w", model, err, fallback, ferr)
	}
	return data, 2, nil
}

func (n *generateImagesNode) callWithTimeout(ctx context.Context, key, model, prompt string) ([]byte, error) {
	timeout := n.deps.Gen.ImageTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return n.deps.GenImage(ctx, key, model, prompt)
}

// writeImageFile stores the raster under a slug-derived name, adding a numeric
// suffix rather than overwriting an earlier variant.
func writeImageFile(dir, sectionTitle string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	slug := cache.Slug(sectionTitle)
	path := filepath.Join(dir, slug+".png")
	for seq := 1; fileExists(path); seq++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.png", slug, seq))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// featureFlags resolves the per-request image toggles against server defaults.
type featureFlags struct {
	infographics bool
	decorative   bool
	diagrams     bool
}

func imageFlags(p models.Preferences, gen config.GenerationConfig) featureFlags {
	resolve := func(pref *bool, def bool) bool {
		if pref != nil {
			return *pref
		}
		return def
	}
	return featureFlags{
		infographics: resolve(p.EnableInfographics, gen.EnableInfographics),
		decorative:   resolve(p.EnableDecorativeHeaders, gen.EnableDecorativeHeaders),
		diagrams:     resolve(p.EnableDiagrams, gen.EnableDiagrams),
	}
}

func (f featureFlags) allows(t models.ImageType) bool {
	switch t {
	case models.ImageInfographic, models.ImageChart:
		return f.infographics
	case models.ImageDecorative:
		return f.decorative
	case models.ImageDiagram, models.ImageMermaid:
		return f.diagrams
	case models.ImageNone:
		return true
	}
	return false
}

func imageStyle(st *workflow.State) string {
	if st.Preferences.ImageStyle != "" {
		return st.Preferences.ImageStyle
	}
	return defaultImageStyle
}

func countGenerated(images map[int]models.SectionImage) int {
	n := 0
	for _, img := range images {
		if img.Path != "" {
			n++
		}
	}
	return n
}

func providerByType(reg *config.ProviderRegistry, t config.ProviderType) *config.ProviderConfig {
	if reg == nil {
		return nil
	}
	for _, name := range reg.Names() {
		if pc, err := reg.Get(name); err == nil && pc.Type == t {
			return pc
		}
	}
	return nil
}

type describeImagesNode struct{ base }

func newDescribeImagesNode(d *Deps) *describeImagesNode {
	return &describeImagesNode{base{name: workflow.NodeDescribeImages, group: events.GroupImages, deps: d}}
}

// Run backfills alt-text descriptions for generated images via a vision call,
// and inlines base64 payloads when the request asked for embedded images.
// Missing descriptions are logged, never fatal.
func (n *describeImagesNode) Run(ctx context.Context, st *workflow.State) *workflow.State {
	if st.Structured == nil || len(st.Structured.SectionImages) == 0 {
		return st
	}
	for id, img := range st.Structured.SectionImages {
		if img.Path == "" {
			continue
		}
		data, err := os.ReadFile(img.Path)
		if err != nil {
			n.deps.logger().Warn("Cannot read image for description", "path", img.Path, "error", err)
			continue
		}
		if img.Description == "" {
			desc, err := n.describe(ctx, st, data)
			if err != nil {
				n.deps.logger().Warn("Image description failed", "section_id", id, "error", err)
			} else {
				img.Description = desc
			}
		}
		if st.Preferences.EmbedImages && img.EmbedBase64 == "" {
			img.EmbedBase64 = base64.StdEncoding.EncodeToString(data)
		}
		st.Structured.SectionImages[id] = img
	}
	return st
}

func (n *describeImagesNode) describe(ctx context.Context, st *workflow.State, data []byte) (string, error) {
	resp, err := n.deps.LLM.Call(ctx, llm.Request{
		Provider:     st.Provider,
		Model:        st.Model,
		SystemPrompt: imageDescribeSystemPrompt,
		UserPrompt:   "Describe this image.",
		Attachments:  []llm.Attachment{{MIMEType: "image/png", Data: data}},
		StepName:     workflow.NodeDescribeImages,
		APIKey:       st.Keys.APIKey,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

type persistImageManifestNode struct{ base }

func newPersistImageManifestNode(d *Deps) *persistImageManifestNode {
	return &persistImageManifestNode{base{name: workflow.NodePersistImageManifest, group: events.GroupImages, deps: d}}
}

// Run records what was generated so the next run over the same content and
// style skips image synthesis entirely. Best-effort: a failed write only
// costs a future cache reuse.
func (n *persistImageManifestNode) Run(_ context.Context, st *workflow.State) *workflow.State {
	if st.Structured == nil || len(st.Structured.SectionImages) == 0 {
		return st
	}
	if reused, _ := st.Metadata["images_reused"].(bool); reused {
		return st
	}

	descriptions := map[int]string{}
	for id, img := range st.Structured.SectionImages {
		if img.Description != "" {
			descriptions[id] = img.Description
		}
	}
	manifest := cache.ImageManifest{
		ContentHash:  st.ContentHash,
		ImageStyle:   imageStyle(st),
		Images:       st.Structured.SectionImages,
		Descriptions: descriptions,
	}
	dir := filepath.Join(st.SessionDir, "images")
	if err := n.deps.Store.SaveImageManifest(dir, manifest); err != nil {
		n.deps.logger().Warn("Failed to persist image manifest", "error", err)
	}
	return st
}
