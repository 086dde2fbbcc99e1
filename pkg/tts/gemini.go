package tts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// defaultVoices are assigned round-robin to speakers without an explicit
// voice mapping.
var defaultVoices = []string{"Kore", "Puck", "Charon", "Fenrir"}

// GeminiSynthesizer produces multi-speaker audio through the Gemini speech
// models. Output is raw 16-bit mono PCM at 24 kHz.
type GeminiSynthesizer struct {
	logger *slog.Logger
}

// NewGeminiSynthesizer creates a synthesizer.
func NewGeminiSynthesizer(logger *slog.Logger) *GeminiSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiSynthesizer{logger: logger.With("component", "tts")}
}

// Synthesize renders the script's dialogue as one audio stream.
func (g *GeminiSynthesizer) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if req.APIKey == "" {
		return nil, fmt.Errorf("no API key for speech synthesis")
	}
	if req.Script == nil || len(req.Script.Dialogue) == 0 {
		return nil, fmt.Errorf("empty podcast script")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  req.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating speech client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			MultiSpeakerVoiceConfig: &genai.MultiSpeakerVoiceConfig{
				SpeakerVoiceConfigs: speakerConfigs(req),
			},
		},
	}

	prompt := transcript(req)
	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("speech generation: %w", err)
	}

	pcm := extractAudio(resp)
	if len(pcm) == 0 {
		return nil, fmt.Errorf("speech response contained no audio data")
	}
	g.logger.Debug("Synthesized audio", "model", req.Model, "pcm_bytes", len(pcm))
	return pcm, nil
}

// speakerConfigs builds the speaker→voice mapping, falling back to the
// default voice rotation for unmapped speakers.
func speakerConfigs(req Request) []*genai.SpeakerVoiceConfig {
	seen := map[string]bool{}
	var configs []*genai.SpeakerVoiceConfig
	i := 0
	for _, line := range req.Script.Dialogue {
		if seen[line.Speaker] {
			continue
		}
		seen[line.Speaker] = true
		voice := req.Voices[line.Speaker]
		if voice == "" {
			voice = defaultVoices[i%len(defaultVoices)]
		}
		configs = append(configs, &genai.SpeakerVoiceConfig{
			Speaker: line.Speaker,
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		})
		i++
	}
	return configs
}

// transcript renders the dialogue as "Speaker: text" lines, the input shape
// the multi-speaker models expect.
func transcript(req Request) string {
	var sb strings.Builder
	sb.WriteString("Read this conversation aloud:\n\n")
	for _, line := range req.Script.Dialogue {
		sb.WriteString(line.Speaker)
		sb.WriteString(": ")
		sb.WriteString(line.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func extractAudio(resp *genai.GenerateContentResponse) []byte {
	var pcm []byte
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				pcm = append(pcm, part.InlineData.Data...)
			}
		}
	}
	return pcm
}
