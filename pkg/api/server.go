// Package api exposes the generation engine over HTTP: SSE generation
// streams, file upload/download, session inspection, cancellation, and a
// WebSocket mirror of the event stream.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/docgen-ai/docgen/pkg/cache"
	"github.com/docgen-ai/docgen/pkg/config"
	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/ingest"
	"github.com/docgen-ai/docgen/pkg/llm"
	"github.com/docgen-ai/docgen/pkg/nodes"
	"github.com/docgen-ai/docgen/pkg/render"
	"github.com/docgen-ai/docgen/pkg/tts"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

// Server is the HTTP front end. One Server serves many concurrent
// generation executions; per-execution state lives in the dispatcher.
type Server struct {
	cfg      *config.Config
	echo     *echo.Echo
	http     *http.Server
	store    *cache.Store
	ingest   *ingest.Service
	hub      *events.Hub
	registry workflow.NodeRegistry
	runs     *RunRegistry
	logger   *slog.Logger

	// tokenSecret salts download tokens; regenerated per process so tokens
	// expire with the artifacts' advertised lifetime semantics.
	tokenSecret string
}

// NewServer wires the server and its routes.
func NewServer(
	cfg *config.Config,
	gateway *llm.Gateway,
	store *cache.Store,
	ingestSvc *ingest.Service,
	renderers *render.Registry,
	synth tts.Synthesizer,
	hub *events.Hub,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		echo:   echo.New(),
		store:  store,
		ingest: ingestSvc,
		hub:    hub,
		runs:   NewRunRegistry(),
		logger: logger.With("component", "api"),

		tokenSecret: uuid.NewString(),
	}
	s.registry = nodes.Registry(&nodes.Deps{
		LLM:       gateway,
		Ingest:    ingestSvc,
		Store:     store,
		Renderers: renderers,
		Synth:     synth,
		Providers: cfg.Providers,
		Gen:       cfg.Generation,
		Logger:    logger,
	})
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	e := s.echo
	e.Use(securityHeaders())

	e.POST("/generate", s.generateHandler)
	e.POST("/generate/podcast", s.generatePodcastHandler)
	e.POST("/generate/mindmap", s.generateMindMapHandler)
	e.POST("/generate/faq", s.generateFAQHandler)

	e.POST("/upload", s.uploadHandler)
	e.GET("/download/*", s.downloadHandler)

	e.GET("/health", s.healthHandler)
	e.GET("/session/:id", s.getSessionHandler)
	e.GET("/sessions", s.listSessionsHandler)
	e.POST("/sessions/:id/cancel", s.cancelSessionHandler)

	e.GET("/ws", s.wsHandler)
}

// Start runs the HTTP server until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }
