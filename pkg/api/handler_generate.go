package api

import (
	echo "github.com/labstack/echo/v5"

	"github.com/docgen-ai/docgen/pkg/models"
)

// generateHandler runs document and image generation. The artifact kind
// comes from the request body and defaults to article_pdf.
func (s *Server) generateHandler(c *echo.Context) error {
	return s.dispatch(c, "")
}

func (s *Server) generatePodcastHandler(c *echo.Context) error {
	return s.dispatch(c, models.ArtifactPodcast)
}

func (s *Server) generateMindMapHandler(c *echo.Context) error {
	return s.dispatch(c, models.ArtifactMindMap)
}

func (s *Server) generateFAQHandler(c *echo.Context) error {
	return s.dispatch(c, models.ArtifactFAQ)
}
