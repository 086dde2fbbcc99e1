package nodes

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgen-ai/docgen/pkg/models"
)

func TestImageGenerateNode(t *testing.T) {
	d := testDeps(t, newFakeLLM())
	var gotModel, gotPrompt string
	d.GenImage = func(_ context.Context, _, model, prompt string) ([]byte, error) {
		gotModel, gotPrompt = model, prompt
		return []byte("png-bytes"), nil
	}

	st := testState(t, models.ArtifactImageGenerate)
	st.Prompt = "a lighthouse at dusk"

	st = newImageGenerateNode(d).Run(t.Context(), st)

	require.Empty(t, st.Errors)
	require.NotNil(t, st.ImageData)
	assert.Equal(t, "imagen-primary", gotModel)
	assert.Equal(t, "a lighthouse at dusk", gotPrompt)
	assert.True(t, strings.HasSuffix(st.OutputPath, ".png"))
	assert.FileExists(t, st.OutputPath)
	assert.True(t, st.Completed)
}

func TestImageGenerateNode_RequiresPrompt(t *testing.T) {
	d := testDeps(t, newFakeLLM())
	st := testState(t, models.ArtifactImageGenerate)

	st = newImageGenerateNode(d).Run(t.Context(), st)

	require.NotNil(t, st.LastError())
	assert.Equal(t, models.ErrUnsupportedSource, st.LastError().Code)
}

func TestImageEditNode(t *testing.T) {
	d := testDeps(t, newFakeLLM())
	var gotSource []byte
	d.EditImage = func(_ context.Context, _, _, _ string, source []byte) ([]byte, error) {
		gotSource = source
		return []byte("edited-bytes"), nil
	}

	st := testState(t, models.ArtifactImageEdit)
	st.Prompt = "make the sky purple"
	st.SourceImage = []byte("original-bytes")
	st.ImageModel = "gemini-2.5-flash-image"

	st = newImageEditNode(d).Run(t.Context(), st)

	require.Empty(t, st.Errors)
	assert.Equal(t, []byte("original-bytes"), gotSource)
	assert.FileExists(t, st.OutputPath)
	assert.Equal(t, "gemini-2.5-flash-image", st.ImageData.Model)
}

func TestImageEditNode_RequiresSource(t *testing.T) {
	d := testDeps(t, newFakeLLM())
	st := testState(t, models.ArtifactImageEdit)
	st.Prompt = "make it pop"

	st = newImageEditNode(d).Run(t.Context(), st)

	require.NotNil(t, st.LastError())
	assert.Equal(t, models.ErrUnsupportedSource, st.LastError().Code)
}

func TestRegistryCoversAllNodes(t *testing.T) {
	d := testDeps(t, newFakeLLM())
	reg := Registry(d)
	assert.Len(t, reg, 17)
	for name, node := range reg {
		require.NotNil(t, node, name)
		assert.Equal(t, name, node.Name())
		assert.NotEmpty(t, node.StepGroup(), name)
	}
}
