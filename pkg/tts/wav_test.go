package tts

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgen-ai/docgen/pkg/models"
)

func TestWrapWAVHeader(t *testing.T) {
	pcm := make([]byte, 4800) // 0.1s of audio
	wav := WrapWAV(pcm)

	require.Len(t, wav, 44+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, "data", string(wav[36:40]))

	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]), "PCM format tag")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]), "mono")
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]), "sample rate")
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]), "byte rate")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]), "bits per sample")
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]), "data length")
}

func TestDuration(t *testing.T) {
	assert.InDelta(t, 1.0, Duration(48000), 1e-9)
	assert.InDelta(t, 0.5, Duration(24000), 1e-9)
	assert.Zero(t, Duration(0))
}

// scriptedSynth fails a fixed number of times before succeeding.
type scriptedSynth struct {
	failures int
	err      error
	calls    int
}

func (s *scriptedSynth) Synthesize(context.Context, Request) ([]byte, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, s.err
	}
	return []byte("pcm"), nil
}

func TestSynthesizeWithRetry(t *testing.T) {
	noSleep := func(time.Duration) {}

	t.Run("transient errors retried", func(t *testing.T) {
		synth := &scriptedSynth{failures: 2, err: errors.New("model overloaded, try later")}
		pcm, err := SynthesizeWithRetry(context.Background(), synth, Request{}, noSleep, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte("pcm"), pcm)
		assert.Equal(t, 3, synth.calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		synth := &scriptedSynth{failures: 10, err: errors.New("HTTP 500 from upstream")}
		_, err := SynthesizeWithRetry(context.Background(), synth, Request{}, noSleep, nil)
		require.Error(t, err)
		assert.Equal(t, 3, synth.calls)
	})

	t.Run("non-transient aborts immediately", func(t *testing.T) {
		synth := &scriptedSynth{failures: 10, err: errors.New("invalid api key")}
		_, err := SynthesizeWithRetry(context.Background(), synth, Request{}, noSleep, nil)
		require.Error(t, err)
		assert.Equal(t, 1, synth.calls)
	})

	t.Run("backoff grows exponentially with jitter", func(t *testing.T) {
		var delays []time.Duration
		synth := &scriptedSynth{failures: 2, err: errors.New("service unavailable")}
		_, err := SynthesizeWithRetry(context.Background(), synth, Request{},
			func(d time.Duration) { delays = append(delays, d) }, nil)
		require.NoError(t, err)

		require.Len(t, delays, 2)
		assert.GreaterOrEqual(t, delays[0], 1*time.Second)
		assert.LessOrEqual(t, delays[0], 1500*time.Millisecond)
		assert.GreaterOrEqual(t, delays[1], 2*time.Second)
		assert.LessOrEqual(t, delays[1], 3*time.Second)
	})
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(errors.New("Internal error")))
	assert.True(t, IsTransient(errors.New("status 500")))
	assert.True(t, IsTransient(errors.New("model Overloaded")))
	assert.True(t, IsTransient(errors.New("temporarily UNAVAILABLE")))
	assert.False(t, IsTransient(errors.New("permission denied")))
	assert.False(t, IsTransient(nil))
}

func TestTranscriptAndVoices(t *testing.T) {
	script := &models.PodcastScript{
		Dialogue: []models.DialogueLine{
			{Speaker: "Ada", Text: "Hello."},
			{Speaker: "Grace", Text: "Hi there."},
			{Speaker: "Ada", Text: "Shall we start?"},
		},
	}
	req := Request{Script: script, Voices: map[string]string{"Grace": "Puck"}}

	text := transcript(req)
	assert.Contains(t, text, "Ada: Hello.")
	assert.Contains(t, text, "Grace: Hi there.")

	configs := speakerConfigs(req)
	require.Len(t, configs, 2, "each speaker configured once")
	assert.Equal(t, "Ada", configs[0].Speaker)
	assert.Equal(t, "Puck", configs[1].VoiceConfig.PrebuiltVoiceConfig.VoiceName)
}
