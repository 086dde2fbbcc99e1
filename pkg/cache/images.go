package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docgen-ai/docgen/pkg/models"
)

// ImageManifest records the images generated for one content hash and style,
// so later artifacts from the same sources can reuse them without calling
// the image model again.
type ImageManifest struct {
	ContentHash  string                      `json:"content_hash"`
	ImageStyle   string                      `json:"image_style"`
	GeneratedAt  time.Time                   `json:"generated_at"`
	Images       map[int]models.SectionImage `json:"images"`
	Descriptions map[int]string              `json:"descriptions,omitempty"`
}

const imageManifestName = "manifest.json"

// SaveImageManifest atomically writes the image manifest into dir.
func (s *Store) SaveImageManifest(dir string, m ImageManifest) error {
	if m.GeneratedAt.IsZero() {
		m.GeneratedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding image manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating image dir: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, imageManifestName), data); err != nil {
		return fmt.Errorf("writing image manifest: %w", err)
	}
	return nil
}

// LoadImages returns the cached section images in dir if they were generated
// for the same content hash and image style, with every referenced file still
// present and non-empty. Any mismatch returns nil: stale images are never
// reused. Image paths are re-resolved against dir by slugged section title;
// when several numbered variants exist the highest suffix wins.
func (s *Store) LoadImages(dir, contentHash, imageStyle string) map[int]models.SectionImage {
	data, err := os.ReadFile(filepath.Join(dir, imageManifestName))
	if err != nil {
		return nil
	}
	var m ImageManifest
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("Discarding unreadable image manifest", "dir", dir, "error", err)
		return nil
	}
	if m.ContentHash != contentHash || !strings.EqualFold(m.ImageStyle, imageStyle) {
		return nil
	}

	out := make(map[int]models.SectionImage, len(m.Images))
	for id, img := range m.Images {
		if img.ImageType == models.ImageNone || img.Path == "" {
			out[id] = img
			continue
		}
		path := resolveImageFile(dir, img.SectionTitle, img.Path)
		if path == "" {
			return nil
		}
		img.Path = path
		out[id] = img
	}
	return out
}

// resolveImageFile finds the newest on-disk file for a section. Candidates
// are <slug>.png and <slug>_<n>.png; the highest n wins. Falls back to the
// recorded path when it still exists. Returns "" when nothing usable exists.
func resolveImageFile(dir, sectionTitle, recorded string) string {
	slug := Slug(sectionTitle)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	best := ""
	bestSeq := -1
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		name := ent.Name()
		if !strings.HasSuffix(name, ".png") {
			continue
		}
		base := strings.TrimSuffix(name, ".png")
		seq := 0
		switch {
		case base == slug:
		case strings.HasPrefix(base, slug+"_"):
			n, err := strconv.Atoi(strings.TrimPrefix(base, slug+"_"))
			if err != nil {
				continue
			}
			seq = n
		default:
			continue
		}
		if seq > bestSeq && fileNonEmpty(filepath.Join(dir, name)) {
			bestSeq = seq
			best = filepath.Join(dir, name)
		}
	}
	if best != "" {
		return best
	}
	if fileNonEmpty(recorded) {
		return recorded
	}
	return ""
}

func fileNonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
