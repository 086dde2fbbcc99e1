// Package ingest resolves generation sources (uploads, URLs, inline text)
// into a single canonical markdown blob plus its content hash.
package ingest

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// githubBlobTreePattern matches GitHub blob or tree URLs.
// Format: https://github.com/{owner}/{repo}/{blob|tree}/{ref}/{path...}
var githubBlobTreePattern = regexp.MustCompile(`^/([^/]+)/([^/]+)/(blob|tree)/([^/]+)(?:/(.*))?$`)

// ConvertToRawURL converts a GitHub blob URL to a raw content URL so the
// fetch returns document bytes instead of the HTML viewer page. Returns the
// URL unchanged if already raw or not a recognized GitHub URL.
func ConvertToRawURL(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return sourceURL
	}

	if parsed.Host == "raw.githubusercontent.com" {
		return sourceURL
	}
	if parsed.Host != "github.com" && parsed.Host != "www.github.com" {
		return sourceURL
	}

	matches := githubBlobTreePattern.FindStringSubmatch(parsed.Path)
	if matches == nil {
		return sourceURL
	}

	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/refs/heads/%s/%s",
		matches[1], matches[2], matches[4], matches[5])
}

// ValidateSourceURL checks that the URL uses an allowed scheme and, when an
// allowlist is configured, an allowed domain.
func ValidateSourceURL(sourceURL string, allowedDomains []string) error {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid scheme %q: only http and https allowed", parsed.Scheme)
	}

	if len(allowedDomains) > 0 {
		host := strings.ToLower(parsed.Hostname())
		allowed := false
		for _, domain := range allowedDomains {
			if host == domain || host == "www."+domain {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("domain %q not in allowed list", host)
		}
	}

	return nil
}
