package nodes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docgen-ai/docgen/pkg/cache"
	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/llm"
	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/tts"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

// defaultSpeakers and defaultTargetMinutes apply when the request leaves the
// podcast shape unspecified.
var defaultSpeakers = []string{"Alex", "Sam"}

const (
	defaultTargetMinutes = 5
	defaultTTSModel      = "gemini-2.5-flash-preview-tts"
)

type podcastScriptNode struct{ base }

func newPodcastScriptNode(d *Deps) *podcastScriptNode {
	return &podcastScriptNode{base{name: workflow.NodePodcastScript, group: events.GroupTransform, deps: d}}
}

// Run turns the ingested content into a multi-speaker dialogue script.
func (n *podcastScriptNode) Run(ctx context.Context, st *workflow.State) *workflow.State {
	speakers := st.Preferences.Speakers
	if len(speakers) == 0 {
		speakers = defaultSpeakers
	}
	minutes := st.Preferences.TargetMinutes
	if minutes <= 0 {
		minutes = defaultTargetMinutes
	}

	system := podcastSystemPrompt + fmt.Sprintf(
		"\nThe speakers are %v. Target roughly %d minutes of spoken audio.", speakers, minutes)

	resp, err := n.deps.LLM.Call(ctx, llm.Request{
		Provider:     st.Provider,
		Model:        st.Model,
		SystemPrompt: system,
		UserPrompt:   st.RawContent,
		JSONMode:     true,
		StepName:     workflow.NodePodcastScript,
		APIKey:       st.Keys.APIKey,
	})
	if err != nil {
		st.AddError(llmErrorCode(err), "podcast script generation failed: %v", err)
		return st
	}

	var script models.PodcastScript
	if err := llm.SafeJSONParse(resp.Text, &script); err != nil {
		st.AddError(models.ErrGenerationFailed, "Generation failed: podcast script was not valid JSON: %v", err)
		return st
	}
	if len(script.Dialogue) == 0 {
		st.AddError(models.ErrGenerationFailed, "Generation failed: podcast script has no dialogue")
		return st
	}
	if script.Title == "" {
		script.Title = st.Title
	}

	st.PodcastScript = &script
	if st.Title == "" {
		st.Title = script.Title
	}
	st.SetMeta("dialogue_lines", len(script.Dialogue))
	return st
}

type podcastAudioNode struct{ base }

func newPodcastAudioNode(d *Deps) *podcastAudioNode {
	return &podcastAudioNode{base{name: workflow.NodePodcastAudio, group: events.GroupOutput, deps: d}}
}

// Run synthesizes the script into a WAV file under the session audio tree.
func (n *podcastAudioNode) Run(ctx context.Context, st *workflow.State) *workflow.State {
	if st.PodcastScript == nil {
		st.AddError(models.ErrInternal, "audio synthesis reached without a script")
		return st
	}
	if n.deps.Synth == nil {
		st.AddError(models.ErrLLMUnavailable, "no speech synthesizer configured")
		return st
	}

	key := st.Keys.TTSAPIKey
	if key == "" {
		key = st.Keys.APIKey
	}
	model := defaultTTSModel
	if pc := providerByType(n.deps.Providers, st.Provider); pc != nil && pc.TTSModel != "" {
		model = pc.TTSModel
	}

	pcm, err := tts.SynthesizeWithRetry(ctx, n.deps.Synth, tts.Request{
		Model:  model,
		APIKey: key,
		Script: st.PodcastScript,
	}, n.deps.Sleep, n.deps.logger())
	if err != nil {
		code := models.ErrLLMUnavailable
		switch {
		case errors.Is(err, context.Canceled):
			code = models.ErrCancelled
		case tts.IsTransient(err):
			code = models.ErrLLMTransient
		}
		st.AddError(code, "speech synthesis failed: %v", err)
		return st
	}

	dir := filepath.Join(st.SessionDir, st.ArtifactKind.Subdir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		st.AddError(models.ErrInternal, "creating audio dir: %v", err)
		return st
	}
	title := st.PodcastScript.Title
	if title == "" {
		title = st.Title
	}
	path := filepath.Join(dir, cache.Slug(title)+".wav")
	if err := os.WriteFile(path, tts.WrapWAV(pcm), 0o644); err != nil {
		st.AddError(models.ErrInternal, "writing audio file: %v", err)
		return st
	}

	st.PodcastAudio = &models.PodcastAudio{
		Path:            path,
		DurationSeconds: tts.Duration(len(pcm)),
	}
	st.OutputPath = path
	st.SetMeta("audio_duration_seconds", st.PodcastAudio.DurationSeconds)
	st.Completed = true
	return st
}
