package ingest

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadedFile describes one stored upload.
type UploadedFile struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Path     string `json:"-"`
}

// UploadStore persists uploaded files under root/<file_id>/<filename> so a
// later generation request can reference them by id.
type UploadStore struct {
	root string
}

// NewUploadStore creates the store, creating root if needed.
func NewUploadStore(root string) (*UploadStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload root: %w", err)
	}
	return &UploadStore{root: root}, nil
}

// Save stores an upload and returns its handle. The filename is reduced to
// its base to keep the stored path inside the file's directory.
func (s *UploadStore) Save(filename string, r io.Reader) (*UploadedFile, error) {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "upload"
	}

	fileID := uuid.NewString()
	dir := filepath.Join(s.root, fileID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}

	path := filepath.Join(dir, base)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating upload file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("writing upload: %w", err)
	}

	return &UploadedFile{
		FileID:   fileID,
		Filename: base,
		Size:     size,
		MimeType: mimeTypeFor(base),
		Path:     path,
	}, nil
}

// Resolve returns the stored upload for a file id.
func (s *UploadStore) Resolve(fileID string) (*UploadedFile, error) {
	dir := filepath.Join(s.root, fileID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unknown file id %q", fileID)
	}
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		name := ent.Name()
		return &UploadedFile{
			FileID:   fileID,
			Filename: name,
			Size:     info.Size(),
			MimeType: mimeTypeFor(name),
			Path:     filepath.Join(dir, name),
		}, nil
	}
	return nil, fmt.Errorf("file id %q has no stored content", fileID)
}

func mimeTypeFor(filename string) string {
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
