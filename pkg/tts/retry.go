package tts

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/docgen-ai/docgen/pkg/models"
)

// maxAttempts bounds transient retries per synthesis call.
const maxAttempts = 3

// transientPatterns are matched case-insensitively against provider errors.
var transientPatterns = []string{"500", "internal", "overload", "unavailable"}

// Request is one synthesis call.
type Request struct {
	Model  string
	APIKey string
	Script *models.PodcastScript
	// Voices maps speaker names to provider voice ids. Speakers without an
	// entry get a default voice.
	Voices map[string]string
}

// Synthesizer produces raw PCM for a podcast script.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// IsTransient reports whether a provider error is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// backoff returns the sleep before retry attempt (0-based):
// 2^attempt × uniform(1, 1.5) seconds.
func backoff(attempt int) time.Duration {
	base := float64(int(1) << attempt)
	jitter := 1 + rand.Float64()*0.5
	return time.Duration(base * jitter * float64(time.Second))
}

// SynthesizeWithRetry calls the synthesizer, retrying transient failures
// with exponential backoff up to maxAttempts total attempts. sleep is
// injectable for tests; pass nil for real sleeping.
func SynthesizeWithRetry(ctx context.Context, s Synthesizer, req Request, sleep func(time.Duration), logger *slog.Logger) ([]byte, error) {
	if sleep == nil {
		sleep = time.Sleep
	}
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt - 1)
			logger.Warn("Retrying speech synthesis",
				"attempt", attempt+1, "delay", delay, "error", lastErr)
			sleep(delay)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		pcm, err := s.Synthesize(ctx, req)
		if err == nil {
			return pcm, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return nil, err
		}
	}
	return nil, lastErr
}
