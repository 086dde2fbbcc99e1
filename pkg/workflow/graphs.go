package workflow

import (
	"fmt"

	"github.com/docgen-ai/docgen/pkg/models"
)

// Node names. Graph construction and node implementations agree on these.
const (
	NodeIngestSources        = "ingest_sources"
	NodeSummarizeSources     = "summarize_sources"
	NodeDetectFormat         = "detect_format"
	NodeParseDocument        = "parse_document_content"
	NodeTransformContent     = "transform_content"
	NodeEnhanceContent       = "enhance_content"
	NodeGenerateImages       = "generate_images"
	NodeDescribeImages       = "describe_images"
	NodePersistImageManifest = "persist_image_manifest"
	NodeGenerateOutput       = "generate_output"
	NodeValidateOutput       = "validate_output"
	NodePodcastScript        = "generate_podcast_script"
	NodePodcastAudio         = "synthesize_podcast_audio"
	NodeMindMap              = "generate_mindmap"
	NodeFAQ                  = "generate_faq"
	NodeImageGenerate        = "image_generate"
	NodeImageEdit            = "image_edit"
)

// documentChain is the document branch in execution order.
var documentChain = []string{
	NodeDetectFormat,
	NodeParseDocument,
	NodeTransformContent,
	NodeEnhanceContent,
	NodeGenerateImages,
	NodeDescribeImages,
	NodePersistImageManifest,
	NodeGenerateOutput,
	NodeValidateOutput,
}

// NodeRegistry maps node names to implementations.
type NodeRegistry map[string]Node

func (r NodeRegistry) get(name string) (Node, error) {
	n, ok := r[name]
	if n == nil || !ok {
		return nil, fmt.Errorf("node %q not registered", name)
	}
	return n, nil
}

// Build compiles the workflow graph for an artifact kind. Source-driven
// kinds share the ingest/summarize prefix and branch by artifact kind;
// image kinds go straight to their single node.
func Build(kind models.ArtifactKind, reg NodeRegistry, maxRetries int) (*Graph, error) {
	switch kind {
	case models.ArtifactImageGenerate:
		return buildSingleNode(NodeImageGenerate, reg)
	case models.ArtifactImageEdit:
		return buildSingleNode(NodeImageEdit, reg)
	}

	branch, err := branchChain(kind)
	if err != nil {
		return nil, err
	}

	b := NewBuilder(NodeIngestSources)
	path := append([]string{NodeIngestSources, NodeSummarizeSources}, branch...)
	for _, name := range path {
		n, err := reg.get(name)
		if err != nil {
			return nil, err
		}
		b.AddNode(n)
	}

	b.AddEdge(NodeIngestSources, NodeSummarizeSources)
	b.AddConditionalEdge(NodeSummarizeSources, routeByKind)
	for i := 0; i < len(branch)-1; i++ {
		b.AddEdge(branch[i], branch[i+1])
	}
	b.AddEdge(branch[len(branch)-1], End)
	b.WithSteps(path...)

	if kind.IsDocument() {
		b.WithRetry(NodeGenerateOutput, NodeValidateOutput, maxRetries)
	}
	return b.Compile()
}

// routeByKind is the conditional edge after summarization.
func routeByKind(st *State) string {
	switch {
	case st.ArtifactKind.IsDocument():
		return NodeDetectFormat
	case st.ArtifactKind == models.ArtifactPodcast:
		return NodePodcastScript
	case st.ArtifactKind == models.ArtifactMindMap:
		return NodeMindMap
	case st.ArtifactKind == models.ArtifactFAQ:
		return NodeFAQ
	}
	return End
}

func branchChain(kind models.ArtifactKind) ([]string, error) {
	switch {
	case kind.IsDocument():
		return documentChain, nil
	case kind == models.ArtifactPodcast:
		return []string{NodePodcastScript, NodePodcastAudio}, nil
	case kind == models.ArtifactMindMap:
		return []string{NodeMindMap}, nil
	case kind == models.ArtifactFAQ:
		return []string{NodeFAQ}, nil
	}
	return nil, fmt.Errorf("no workflow for artifact kind %q", kind)
}

func buildSingleNode(name string, reg NodeRegistry) (*Graph, error) {
	n, err := reg.get(name)
	if err != nil {
		return nil, err
	}
	return NewBuilder(name).
		AddNode(n).
		AddEdge(name, End).
		WithSteps(name).
		Compile()
}
