// Package nodes implements the workflow node set: ingestion, summarization,
// structuring, image generation, rendering, validation, and the podcast,
// mind-map, FAQ, and single-image branches. Each node is a thin coordinator
// over the gateway, cache store, renderers, and synthesizer.
package nodes

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/docgen-ai/docgen/pkg/cache"
	"github.com/docgen-ai/docgen/pkg/config"
	"github.com/docgen-ai/docgen/pkg/ingest"
	"github.com/docgen-ai/docgen/pkg/llm"
	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/render"
	"github.com/docgen-ai/docgen/pkg/tts"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

// LLMCaller is the gateway slice nodes use for text and vision calls.
type LLMCaller interface {
	Call(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// ImageGenFunc produces raster bytes for a prompt.
type ImageGenFunc func(ctx context.Context, apiKey, model, prompt string) ([]byte, error)

// ImageEditFunc produces raster bytes by editing a source image per prompt.
type ImageEditFunc func(ctx context.Context, apiKey, model, prompt string, source []byte) ([]byte, error)

// Deps carries every collaborator a node may need. Tests swap individual
// fields for fakes.
type Deps struct {
	LLM       LLMCaller
	GenImage  ImageGenFunc
	EditImage ImageEditFunc
	Ingest    *ingest.Service
	Store     *cache.Store
	Renderers *render.Registry
	Synth     tts.Synthesizer
	Providers *config.ProviderRegistry
	Gen       config.GenerationConfig
	Logger    *slog.Logger
	Sleep     func(time.Duration)
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// llmErrorCode classifies a gateway error for state recording. Missing
// credentials are an auth problem, transient overloads keep their own code,
// and everything else means the provider is effectively unavailable.
func llmErrorCode(err error) models.ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return models.ErrCancelled
	case errors.Is(err, llm.ErrNoAPIKey):
		return models.ErrAuth
	case llm.IsTransient(err):
		return models.ErrLLMTransient
	}
	var coded *models.CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return models.ErrLLMUnavailable
}

// base supplies the Node identity boilerplate.
type base struct {
	name  string
	group string
	deps  *Deps
}

func (b base) Name() string      { return b.name }
func (b base) StepGroup() string { return b.group }

// Registry builds the full node registry for graph compilation.
func Registry(d *Deps) workflow.NodeRegistry {
	if d.GenImage == nil {
		d.GenImage = llm.GenerateImage
	}
	if d.EditImage == nil {
		d.EditImage = llm.EditImage
	}
	return workflow.NodeRegistry{
		workflow.NodeIngestSources:        newIngestNode(d),
		workflow.NodeSummarizeSources:     newSummarizeNode(d),
		workflow.NodeDetectFormat:         newDetectFormatNode(d),
		workflow.NodeParseDocument:        newParseDocumentNode(d),
		workflow.NodeTransformContent:     newTransformNode(d),
		workflow.NodeEnhanceContent:       newEnhanceNode(d),
		workflow.NodeGenerateImages:       newGenerateImagesNode(d),
		workflow.NodeDescribeImages:       newDescribeImagesNode(d),
		workflow.NodePersistImageManifest: newPersistImageManifestNode(d),
		workflow.NodeGenerateOutput:       newGenerateOutputNode(d),
		workflow.NodeValidateOutput:       newValidateOutputNode(d),
		workflow.NodePodcastScript:        newPodcastScriptNode(d),
		workflow.NodePodcastAudio:         newPodcastAudioNode(d),
		workflow.NodeMindMap:              newMindMapNode(d),
		workflow.NodeFAQ:                  newFAQNode(d),
		workflow.NodeImageGenerate:        newImageGenerateNode(d),
		workflow.NodeImageEdit:            newImageEditNode(d),
	}
}
