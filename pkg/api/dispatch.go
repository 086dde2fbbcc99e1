package api

import (
	"context"
	"encoding/base64"
	"net/http"
	"os"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/docgen-ai/docgen/pkg/cache"
	"github.com/docgen-ai/docgen/pkg/config"
	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

// artifactTTLSeconds is the advertised lifetime of a download link.
const artifactTTLSeconds = 24 * 60 * 60

// dispatch runs one generation request end to end over an SSE stream.
//
// Request-shape problems are rejected with plain HTTP errors before the
// stream opens. Everything after the first byte of the stream travels as
// events, ending with exactly one terminal event: complete, cache_hit,
// error, or cancelled.
func (s *Server) dispatch(c *echo.Context, kind models.ArtifactKind) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if req.ArtifactKind != "" && kind == "" {
		parsed, err := models.ParseArtifactKind(req.ArtifactKind)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		kind = parsed
	}
	if kind == "" {
		kind = models.ArtifactArticlePDF
	}

	sourceImage, err := req.validateFor(kind)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	providerName := req.Provider
	if providerName == "" {
		providerName = s.cfg.Defaults.Provider
	}
	provider, err := config.NormalizeProviderType(providerName)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pc, err := s.cfg.GetProvider(string(provider))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	model := req.Model
	if model == "" {
		model = pc.Model
	}
	imageModel := req.ImageModel
	if imageModel == "" {
		imageModel = pc.ImageModel
	}
	if req.Preferences.ImageStyle == "" {
		req.Preferences.ImageStyle = s.cfg.Defaults.ImageStyle
	}
	keys := requestKeys(c, provider, pc)

	digest := cache.SourceDigest(req.Sources)
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = c.QueryParam("session_id")
	}
	if sessionID == "" {
		sessionID = cache.DeriveSessionID(digest)
	}

	logger := s.logger.With("session_id", sessionID, "kind", kind, "provider", provider)
	if uid := c.Request().Header.Get(headerUserID); uid != "" {
		logger = logger.With("user_id", uid)
	}

	stream := s.openStream(c, sessionID)

	if keys.APIKey == "" {
		stream(events.NewError(models.ErrAuth,
			"no API key provided for provider "+string(provider)))
		return nil
	}

	cacheKey := cache.Key(kind, string(provider), model, imageModel, req.Preferences, digest)
	if req.ReuseCache {
		if art, ok := s.store.Get(cacheKey); ok {
			logger.Info("Cache hit", "cache_key", cacheKey[:12], "file", art.FilePath)
			ev := events.NewCacheHit(sessionID, art.FilePath,
				s.downloadURL(art.FilePath), artifactTTLSeconds, art.CreatedAt)
			s.attachInlinePreview(&ev, art)
			stream(ev)
			return nil
		}
	}

	sessionDir, err := s.store.SessionDir(sessionID)
	if err != nil {
		logger.Error("Failed to create session dir", "error", err)
		stream(events.NewError(models.ErrInternal, "failed to prepare session storage"))
		return nil
	}

	graph, err := workflow.Build(kind, s.registry, s.cfg.Generation.MaxRetries)
	if err != nil {
		logger.Error("Failed to build workflow", "error", err)
		stream(events.NewError(models.ErrInternal, "failed to build workflow"))
		return nil
	}

	st := workflow.NewState()
	st.SessionID = sessionID
	st.ArtifactKind = kind
	st.Provider = provider
	st.Model = model
	st.ImageModel = imageModel
	st.Keys = keys
	st.Preferences = req.Preferences
	st.Sources = req.Sources
	st.SessionDir = sessionDir
	st.Prompt = req.Prompt
	st.SourceImage = sourceImage

	// Client disconnect cancels the run; the cancel endpoint reaches it
	// through the registry.
	runCtx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	s.runs.Track(sessionID, cancel)
	defer s.runs.Release(sessionID)

	bus := events.NewBus(0)
	runner := workflow.NewRunner(graph, bus, s.logger)
	done := make(chan *workflow.State, 1)
	go func() {
		done <- runner.Run(runCtx, st)
		bus.Close()
	}()

	sawTerminal := false
	for ev := range bus.Events() {
		if ev.Terminal() {
			ev.SessionID = sessionID
			sawTerminal = true
		}
		stream(ev)
	}
	final := <-done
	if sawTerminal {
		// The runner only emits a terminal event on cancellation.
		logger.Info("Generation cancelled")
		return nil
	}

	if final.Completed && final.TerminalError() == nil {
		meta := completionMetadata(final)
		art := cache.Artifact{
			Kind:        kind,
			FilePath:    final.OutputPath,
			ContentHash: final.ContentHash,
			Model:       model,
			CreatedAt:   time.Now().UTC(),
			Metadata:    meta,
		}
		if err := s.store.Put(cacheKey, sessionID, art); err != nil {
			logger.Warn("Failed to cache artifact", "error", err)
		}
		logger.Info("Generation complete", "file", final.OutputPath)
		stream(events.NewComplete(sessionID, final.OutputPath,
			s.downloadURL(final.OutputPath), artifactTTLSeconds, meta))
		return nil
	}

	code, msg := models.ErrInternal, "generation produced no output"
	if e := final.TerminalError(); e != nil {
		code, msg = e.Code, e.Message
	} else if e := final.LastError(); e != nil {
		// Retry budget exhausted: the last retryable error is the outcome.
		code, msg = e.Code, e.Message
	}
	logger.Warn("Generation failed", "code", code, "error", msg)
	stream(events.NewError(code, msg))
	return nil
}

// openStream switches the response to SSE and returns the per-event send
// function. Events are mirrored to WebSocket subscribers of the session.
func (s *Server) openStream(c *echo.Context, sessionID string) func(events.Event) {
	w := c.Response()
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	return func(ev events.Event) {
		if err := events.WriteSSE(w, ev); err != nil {
			s.logger.Debug("SSE write failed", "session_id", sessionID, "error", err)
			return
		}
		if err := rc.Flush(); err != nil {
			s.logger.Debug("SSE flush failed", "session_id", sessionID, "error", err)
		}
		s.hub.Broadcast(sessionID, ev)
	}
}

// attachInlinePreview adds the inline artifact body to a cache-hit event
// when the file is small enough: raw text for markdown, base64 for PDFs.
func (s *Server) attachInlinePreview(ev *events.Event, art *cache.Artifact) {
	info, err := os.Stat(art.FilePath)
	if err != nil || info.Size() > s.cfg.Storage.MaxInlinePreviewBytes {
		return
	}
	data, err := os.ReadFile(art.FilePath)
	if err != nil {
		return
	}
	switch art.Kind {
	case models.ArtifactArticleMarkdown:
		ev.MarkdownContent = string(data)
	case models.ArtifactArticlePDF, models.ArtifactSlideDeckPDF:
		ev.PDFBase64 = base64.StdEncoding.EncodeToString(data)
	}
}

// completionMetadata snapshots the run metadata exposed on the terminal
// complete event.
func completionMetadata(st *workflow.State) map[string]any {
	meta := make(map[string]any, len(st.Metadata)+2)
	for k, v := range st.Metadata {
		if k == "step_numbers" {
			continue
		}
		meta[k] = v
	}
	if st.Title != "" {
		meta["title"] = st.Title
	}
	if st.RetryCount > 0 {
		meta["retries"] = st.RetryCount
	}
	return meta
}
