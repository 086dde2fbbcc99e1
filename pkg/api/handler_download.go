package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"path/filepath"
	"strings"

	echo "github.com/labstack/echo/v5"
)

// downloadHandler serves a generated artifact by its path relative to the
// output root. The token is the per-process HMAC handed out on completion;
// links stop working on restart, matching the advertised expiry semantics.
func (s *Server) downloadHandler(c *echo.Context) error {
	rel := c.Param("*")
	if rel == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing artifact path")
	}
	if !validToken(c.QueryParam("token"), s.tokenSecret, rel) {
		return echo.NewHTTPError(http.StatusForbidden, "invalid or expired download token")
	}

	root := s.store.OutputRoot()
	path := filepath.Join(root, filepath.FromSlash(rel))
	// Join cleans the path; anything that escapes the root is a traversal.
	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid artifact path")
	}

	return c.File(path)
}

// downloadURL builds the tokenized download link for an absolute artifact
// path inside the output root. Paths outside the root get no link.
func (s *Server) downloadURL(absPath string) string {
	rel, err := filepath.Rel(s.store.OutputRoot(), absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	rel = filepath.ToSlash(rel)
	return "/download/" + rel + "?token=" + downloadToken(s.tokenSecret, rel)
}

func downloadToken(secret, rel string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(rel))
	return hex.EncodeToString(mac.Sum(nil))[:32]
}

func validToken(token, secret, rel string) bool {
	return token != "" && hmac.Equal([]byte(token), []byte(downloadToken(secret, rel)))
}
