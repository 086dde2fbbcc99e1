package api

import (
	"net/http"
	"os"
	"path/filepath"

	echo "github.com/labstack/echo/v5"

	"github.com/docgen-ai/docgen/pkg/version"
)

// healthHandler reports liveness plus cache-directory writability, so a
// deployment with a read-only volume fails its probe instead of failing
// mid-generation.
func (s *Server) healthHandler(c *echo.Context) error {
	status := "ok"
	probe := filepath.Join(s.cfg.Storage.CacheRoot, ".health-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		s.logger.Error("Cache directory is not writable", "error", err)
		status = "degraded"
	} else {
		os.Remove(probe)
	}
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  status,
		Version: version.Full(),
	})
}

// getSessionHandler returns the generation history for one session.
func (s *Server) getSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	m, err := s.store.Manifest(sessionID)
	if err != nil {
		return mapError(err)
	}
	if len(m.OutputsGenerated) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "unknown session: "+sessionID)
	}
	return c.JSON(http.StatusOK, sessionResponse(m))
}

// listSessionsHandler enumerates sessions that have generated at least one
// artifact.
func (s *Server) listSessionsHandler(c *echo.Context) error {
	manifests, err := s.store.ListSessions()
	if err != nil {
		return mapError(err)
	}
	resp := SessionListResponse{Sessions: make([]SessionResponse, 0, len(manifests))}
	for _, m := range manifests {
		resp.Sessions = append(resp.Sessions, sessionResponse(m))
	}
	return c.JSON(http.StatusOK, resp)
}

// cancelSessionHandler cancels the session's in-flight generation, if any.
// The run itself reports the terminal Cancelled event on its own stream.
func (s *Server) cancelSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	cancelled := s.runs.Cancel(sessionID)
	if !cancelled {
		return echo.NewHTTPError(http.StatusNotFound, "no generation in flight for session "+sessionID)
	}
	s.logger.Info("Cancellation requested", "session_id", sessionID)
	return c.JSON(http.StatusOK, CancelResponse{SessionID: sessionID, Cancelled: true})
}
