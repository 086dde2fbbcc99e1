package nodes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/tts"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

const scriptResponse = `{
  "title": "The Topic, Discussed",
  "description": "Two hosts walk through the material.",
  "dialogue": [
    {"speaker": "Alex", "text": "Welcome back."},
    {"speaker": "Sam", "text": "Glad to be here."}
  ]
}`

// fakeSynth returns fixed PCM, or an error, and records requests.
type fakeSynth struct {
	pcm  []byte
	err  error
	reqs []tts.Request
}

func (f *fakeSynth) Synthesize(_ context.Context, req tts.Request) ([]byte, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.pcm, nil
}

func TestPodcastScriptNode(t *testing.T) {
	f := newFakeLLM()
	f.respond(workflow.NodePodcastScript, scriptResponse)
	d := testDeps(t, f)
	st := testState(t, models.ArtifactPodcast)
	st.Preferences.Speakers = []string{"Ana", "Ben"}
	st.Preferences.TargetMinutes = 8

	st = newPodcastScriptNode(d).Run(t.Context(), st)

	require.Empty(t, st.Errors)
	require.NotNil(t, st.PodcastScript)
	assert.Equal(t, "The Topic, Discussed", st.PodcastScript.Title)
	assert.Len(t, st.PodcastScript.Dialogue, 2)
	assert.Equal(t, 2, st.Metadata["dialogue_lines"])

	require.Len(t, f.calls, 1)
	assert.Contains(t, f.calls[0].SystemPrompt, "Ana")
	assert.Contains(t, f.calls[0].SystemPrompt, "8 minutes")
}

func TestPodcastScriptNode_RejectsEmptyDialogue(t *testing.T) {
	f := newFakeLLM()
	f.respond(workflow.NodePodcastScript, `{"title": "x", "dialogue": []}`)
	d := testDeps(t, f)
	st := testState(t, models.ArtifactPodcast)

	st = newPodcastScriptNode(d).Run(t.Context(), st)

	require.NotNil(t, st.LastError())
	assert.Equal(t, models.ErrGenerationFailed, st.LastError().Code)
}

func TestPodcastAudioNode(t *testing.T) {
	d := testDeps(t, newFakeLLM())
	// One second of mono 24 kHz 16-bit audio.
	synth := &fakeSynth{pcm: make([]byte, 48000)}
	d.Synth = synth

	st := testState(t, models.ArtifactPodcast)
	st.PodcastScript = &models.PodcastScript{
		Title:    "The Topic, Discussed",
		Dialogue: []models.DialogueLine{{Speaker: "Alex", Text: "Hi."}},
	}

	st = newPodcastAudioNode(d).Run(t.Context(), st)

	require.Empty(t, st.Errors)
	require.NotNil(t, st.PodcastAudio)
	assert.InDelta(t, 1.0, st.PodcastAudio.DurationSeconds, 0.001)
	assert.True(t, strings.HasSuffix(st.OutputPath, ".wav"))
	assert.FileExists(t, st.OutputPath)
	assert.True(t, st.Completed)

	require.Len(t, synth.reqs, 1)
	assert.Equal(t, "tts-test-model", synth.reqs[0].Model, "provider tts model applies")
	assert.Equal(t, "key", synth.reqs[0].APIKey, "falls back to the text key")
}

func TestPodcastAudioNode_WithoutScript(t *testing.T) {
	d := testDeps(t, newFakeLLM())
	d.Synth = &fakeSynth{}
	st := testState(t, models.ArtifactPodcast)

	st = newPodcastAudioNode(d).Run(t.Context(), st)

	require.NotNil(t, st.LastError())
	assert.Equal(t, models.ErrInternal, st.LastError().Code)
}

func TestPodcastAudioNode_SynthFailure(t *testing.T) {
	d := testDeps(t, newFakeLLM())
	d.Synth = &fakeSynth{err: errors.New("bad voice config")}
	st := testState(t, models.ArtifactPodcast)
	st.PodcastScript = &models.PodcastScript{
		Dialogue: []models.DialogueLine{{Speaker: "Alex", Text: "Hi."}},
	}

	st = newPodcastAudioNode(d).Run(t.Context(), st)

	require.NotNil(t, st.LastError())
	assert.Equal(t, models.ErrLLMUnavailable, st.LastError().Code)
	assert.False(t, st.Completed)
}
