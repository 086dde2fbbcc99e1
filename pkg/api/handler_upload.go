package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// uploadHandler stores one multipart file and returns its handle for later
// generation requests.
func (s *Server) uploadHandler(c *echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to open upload: "+err.Error())
	}
	defer src.Close()

	file, err := s.ingest.Uploads().Save(fh.Filename, src)
	if err != nil {
		s.logger.Error("Failed to store upload", "filename", fh.Filename, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store upload")
	}

	s.logger.Info("Stored upload", "file_id", file.FileID, "filename", file.Filename, "size", file.Size)
	return c.JSON(http.StatusOK, UploadResponse{
		FileID:   file.FileID,
		Filename: file.Filename,
		Size:     file.Size,
		MimeType: file.MimeType,
	})
}
