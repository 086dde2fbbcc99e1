package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxFetchBytes caps how much of a remote document is read.
const maxFetchBytes = 32 << 20 // 32 MiB

// Fetcher downloads source content over HTTP.
type Fetcher struct {
	httpClient     *http.Client
	allowedDomains []string
	logger         *slog.Logger
}

// NewFetcher creates an HTTP fetcher. An empty allowlist permits any domain.
func NewFetcher(allowedDomains []string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		allowedDomains: allowedDomains,
		logger:         logger,
	}
}

// OverrideHTTPClientForTest replaces the internal HTTP client. For testing only.
func (f *Fetcher) OverrideHTTPClientForTest(httpClient *http.Client) {
	f.httpClient = httpClient
}

// Fetch validates and downloads a source URL, returning the body bytes and
// the response content type. GitHub blob URLs are rewritten to raw form.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL string) ([]byte, string, error) {
	if err := ValidateSourceURL(sourceURL, f.allowedDomains); err != nil {
		return nil, "", err
	}

	downloadURL := ConvertToRawURL(sourceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", downloadURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("server returned HTTP %d for %s", resp.StatusCode, downloadURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read response body: %w", err)
	}

	f.logger.Debug("Fetched source URL", "url", downloadURL, "bytes", len(body))
	return body, resp.Header.Get("Content-Type"), nil
}
