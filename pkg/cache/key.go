// Package cache implements the content-addressed artifact cache and the
// per-session manifest store. Lookups are deterministic: the same logical
// inputs always produce the same cache key, and a hit is only returned when
// the referenced file is still valid on disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/docgen-ai/docgen/pkg/models"
)

// sha returns the lowercase hex SHA-256 of data.
func sha(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SourceDigest computes the canonical digest over a source set: for each
// source in declaration order, H(type ‖ payload), folded with H(prev ‖ cur).
// Reordering sources produces a different digest by design.
func SourceDigest(sources []models.Source) string {
	digest := ""
	for _, src := range sources {
		cur := sha(append([]byte(src.Type), src.Payload()...))
		if digest == "" {
			digest = cur
			continue
		}
		digest = sha([]byte(digest + cur))
	}
	return digest
}

// CanonicalPreferences serializes preference fields in a fixed key order,
// stripping defaults and lowercasing enum-ish values, so logically identical
// requests canonicalize to the same string.
func CanonicalPreferences(p models.Preferences) string {
	var parts []string
	add := func(key, val string) {
		parts = append(parts, key+"="+val)
	}

	if p.ImageStyle != "" {
		add("image_style", strings.ToLower(p.ImageStyle))
	}
	if p.EnableInfographics != nil {
		add("enable_infographics", fmt.Sprintf("%t", *p.EnableInfographics))
	}
	if p.EnableDecorativeHeaders != nil {
		add("enable_decorative_headers", fmt.Sprintf("%t", *p.EnableDecorativeHeaders))
	}
	if p.EnableDiagrams != nil {
		add("enable_diagrams", fmt.Sprintf("%t", *p.EnableDiagrams))
	}
	if p.MaxSlides > 0 {
		add("max_slides", fmt.Sprintf("%d", p.MaxSlides))
	}
	if p.TargetMinutes > 0 {
		add("target_minutes", fmt.Sprintf("%d", p.TargetMinutes))
	}
	if len(p.Speakers) > 0 {
		add("speakers", strings.ToLower(strings.Join(p.Speakers, ",")))
	}
	if p.EmbedImages {
		add("embed_images", "true")
	}

	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// Key computes the cache key for an artifact request:
// H(kind ‖ provider ‖ model ‖ image_model ‖ canonical_prefs ‖ source_digest).
func Key(kind models.ArtifactKind, provider, model, imageModel string, prefs models.Preferences, sourceDigest string) string {
	var sb strings.Builder
	sb.WriteString(string(kind))
	sb.WriteByte('|')
	sb.WriteString(strings.ToLower(provider))
	sb.WriteByte('|')
	sb.WriteString(model)
	sb.WriteByte('|')
	sb.WriteString(imageModel)
	sb.WriteByte('|')
	sb.WriteString(CanonicalPreferences(prefs))
	sb.WriteByte('|')
	sb.WriteString(sourceDigest)
	return sha([]byte(sb.String()))
}

// DeriveSessionID derives a session id from the source digest when the
// caller doesn't supply one. Truncated for path friendliness; the full
// digest still guards reuse through cache keys and content hashes.
func DeriveSessionID(sourceDigest string) string {
	return sha([]byte(sourceDigest))[:16]
}
