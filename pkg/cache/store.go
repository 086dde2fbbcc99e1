package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/docgen-ai/docgen/pkg/models"
)

// Artifact is one cached output referenced by a manifest entry.
type Artifact struct {
	Kind        models.ArtifactKind `json:"kind"`
	FilePath    string              `json:"file_path"`
	ContentHash string              `json:"content_hash,omitempty"`
	Model       string              `json:"model,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	Metadata    map[string]any      `json:"metadata,omitempty"`
}

// Manifest is the per-session record of everything generated so far.
type Manifest struct {
	SessionID        string                           `json:"session_id"`
	CreatedAt        time.Time                        `json:"created_at"`
	LastGeneratedAt  time.Time                        `json:"last_generated_at"`
	OutputsGenerated []models.ArtifactKind            `json:"outputs_generated"`
	Artifacts        map[models.ArtifactKind]Artifact `json:"artifacts"`
}

// entry is the on-disk shape of one cache key file.
type entry struct {
	Key       string   `json:"key"`
	SessionID string   `json:"session_id"`
	Artifact  Artifact `json:"artifact"`
}

// Store is the filesystem-backed artifact cache plus session manifests.
// Cache entries live under cacheRoot as <key>.json; session output trees and
// their manifest.json live under outputRoot/<session_id>/.
type Store struct {
	cacheRoot  string
	outputRoot string
	logger     *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store rooted at the given directories, creating them if
// needed.
func NewStore(cacheRoot, outputRoot string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, dir := range []string{cacheRoot, outputRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return &Store{
		cacheRoot:  cacheRoot,
		outputRoot: outputRoot,
		logger:     logger.With("component", "cache_store"),
		locks:      map[string]*sync.Mutex{},
	}, nil
}

// OutputRoot returns the root directory for session output trees.
func (s *Store) OutputRoot() string { return s.outputRoot }

// SessionDir returns (and creates) the output directory for a session.
func (s *Store) SessionDir(sessionID string) (string, error) {
	dir := filepath.Join(s.outputRoot, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating session dir: %w", err)
	}
	return dir, nil
}

// ArtifactDir returns (and creates) the subdirectory for a given artifact
// kind inside a session's output tree.
func (s *Store) ArtifactDir(sessionID string, kind models.ArtifactKind) (string, error) {
	dir := filepath.Join(s.outputRoot, sessionID, kind.Subdir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifact dir: %w", err)
	}
	return dir, nil
}

// sessionLock returns the mutex serializing manifest writes for a session.
func (s *Store) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lk, ok := s.locks[sessionID]
	if !ok {
		lk = &sync.Mutex{}
		s.locks[sessionID] = lk
	}
	return lk
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.cacheRoot, key+".json")
}

// Get looks up a cache entry by key. A hit is returned only when the entry
// parses, the referenced file still exists and is non-empty, and its
// extension matches the artifact kind. Anything else is a miss.
func (s *Store) Get(key string) (*Artifact, bool) {
	data, err := os.ReadFile(s.entryPath(key))
	if err != nil {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		s.logger.Warn("Discarding unreadable cache entry", "key", key, "error", err)
		return nil, false
	}
	info, err := os.Stat(e.Artifact.FilePath)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return nil, false
	}
	if ext := e.Artifact.Kind.Ext(); ext != "" && !strings.HasSuffix(e.Artifact.FilePath, ext) {
		return nil, false
	}
	return &e.Artifact, true
}

// Put records a generated artifact under key and updates the session
// manifest. Both writes are atomic (temp file + rename); manifest updates
// for a session are serialized by a per-session mutex.
func (s *Store) Put(key, sessionID string, art Artifact) error {
	if art.CreatedAt.IsZero() {
		art.CreatedAt = time.Now().UTC()
	}

	e := entry{Key: key, SessionID: sessionID, Artifact: art}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := writeFileAtomic(s.entryPath(key), data); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	if err := s.updateManifest(sessionID, art); err != nil {
		return err
	}
	s.logger.Debug("Cached artifact", "key", key, "session_id", sessionID, "kind", art.Kind)
	return nil
}

// Manifest loads the manifest for a session. A missing manifest is not an
// error; an empty one is returned.
func (s *Store) Manifest(sessionID string) (*Manifest, error) {
	path := filepath.Join(s.outputRoot, sessionID, "manifest.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Manifest{
			SessionID: sessionID,
			Artifacts: map[models.ArtifactKind]Artifact{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Artifacts == nil {
		m.Artifacts = map[models.ArtifactKind]Artifact{}
	}
	return &m, nil
}

// ListSessions returns the manifests of all sessions with output trees,
// skipping directories without a readable manifest.
func (s *Store) ListSessions() ([]*Manifest, error) {
	entries, err := os.ReadDir(s.outputRoot)
	if err != nil {
		return nil, fmt.Errorf("reading output root: %w", err)
	}
	var out []*Manifest
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		m, err := s.Manifest(ent.Name())
		if err != nil {
			s.logger.Warn("Skipping session with unreadable manifest", "session_id", ent.Name(), "error", err)
			continue
		}
		if len(m.OutputsGenerated) == 0 {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) updateManifest(sessionID string, art Artifact) error {
	lk := s.sessionLock(sessionID)
	lk.Lock()
	defer lk.Unlock()

	m, err := s.Manifest(sessionID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.LastGeneratedAt = now
	m.Artifacts[art.Kind] = art
	if !containsKind(m.OutputsGenerated, art.Kind) {
		m.OutputsGenerated = append(m.OutputsGenerated, art.Kind)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	dir, err := s.SessionDir(sessionID)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, "manifest.json"), data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

func containsKind(kinds []models.ArtifactKind, k models.ArtifactKind) bool {
	for _, have := range kinds {
		if have == k {
			return true
		}
	}
	return false
}

// writeFileAtomic writes data to a temp file in the target's directory and
// renames it into place, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
