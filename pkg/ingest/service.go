package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/docgen-ai/docgen/pkg/config"
	"github.com/docgen-ai/docgen/pkg/llm"
	"github.com/docgen-ai/docgen/pkg/models"
)

// sourceSeparator joins per-source markdown blobs.
const sourceSeparator = "\n\n---\n\n"

// visionInstruction is the fixed prompt used to turn an image source into
// markdown. The response is used verbatim as the source's content.
const visionInstruction = `Extract all text from this image verbatim, preserving structure as markdown. ` +
	`After the extracted text, add a short paragraph describing what the image shows. ` +
	`If the image contains no text, provide only the description.`

// LLMCaller is the slice of the model gateway ingestion needs for
// image-source understanding.
type LLMCaller interface {
	Call(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Service resolves a source set into canonical markdown.
type Service struct {
	uploads *UploadStore
	fetcher *Fetcher
	parsers *ParserRegistry
	gateway LLMCaller
	logger  *slog.Logger
}

// NewService wires the ingestion service.
func NewService(uploads *UploadStore, fetcher *Fetcher, parsers *ParserRegistry, gateway LLMCaller, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		uploads: uploads,
		fetcher: fetcher,
		parsers: parsers,
		gateway: gateway,
		logger:  logger.With("component", "ingest"),
	}
}

// Uploads exposes the upload store for the API layer.
func (s *Service) Uploads() *UploadStore { return s.uploads }

// ResolveInput carries everything Resolve needs.
type ResolveInput struct {
	Sources  []models.Source
	Provider config.ProviderType
	Model    string
	APIKey   string

	// SessionDir, when set with DocumentKind, receives the concatenated
	// markdown as source/content.md.
	SessionDir   string
	DocumentKind bool
}

// Resolved is the ingestion result.
type Resolved struct {
	RawContent  string
	ContentHash string
	Title       string
	PageCount   int
	InputPath   string
	FileID      string
	SourceCount int
	Format      InputFormat
}

// Resolve converts each source to markdown, concatenates with a horizontal
// rule separator, and computes the content hash. Spreadsheets are rejected;
// image sources are read through the vision model.
func (s *Service) Resolve(ctx context.Context, in ResolveInput) (*Resolved, error) {
	if len(in.Sources) == 0 {
		return nil, models.NewError(models.ErrUnsupportedSource, "no sources provided")
	}

	out := &Resolved{SourceCount: len(in.Sources), Format: FormatMarkdown}
	parts := make([]string, 0, len(in.Sources))

	for i, src := range in.Sources {
		part, err := s.resolveOne(ctx, in, src, out)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(part) == "" {
			s.logger.Warn("Source resolved to empty content", "index", i, "type", src.Type)
			continue
		}
		parts = append(parts, strings.TrimSpace(part))
	}

	if len(parts) == 0 {
		return nil, models.NewError(models.ErrParseFailed, "all sources resolved to empty content")
	}

	out.RawContent = strings.Join(parts, sourceSeparator)
	out.ContentHash = HashContent(out.RawContent)
	if out.Title == "" {
		out.Title = firstHeading(out.RawContent)
	}

	if in.DocumentKind && in.SessionDir != "" {
		path, err := s.writeSessionSource(in.SessionDir, out.RawContent)
		if err != nil {
			return nil, err
		}
		out.InputPath = path
	}

	s.logger.Info("Resolved sources",
		"count", out.SourceCount,
		"chars", len(out.RawContent),
		"content_hash", out.ContentHash[:12])
	return out, nil
}

// RewriteSessionSource replaces the session source file with new content.
// Used after summarization so downstream consumers read the summary.
func (s *Service) RewriteSessionSource(inputPath, content string) error {
	if inputPath == "" {
		return nil
	}
	if err := os.WriteFile(inputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("rewriting session source: %w", err)
	}
	return nil
}

func (s *Service) resolveOne(ctx context.Context, in ResolveInput, src models.Source, out *Resolved) (string, error) {
	switch src.Type {
	case models.SourceText:
		return src.Text, nil

	case models.SourceURL:
		data, contentType, err := s.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			return "", models.WrapError(models.ErrParseFailed, err, "fetching %s", src.URL)
		}
		format := DetectFormat(src.URL, contentType)
		if hint := InputFormat(strings.ToLower(src.ParserHint)); hint != "" && hint != FormatUnknown {
			if _, ok := s.parsers.Get(hint); ok {
				format = hint
			}
		}
		return s.parseBytes(ctx, in, format, data, src.URL, out)

	case models.SourceFile:
		file, err := s.uploads.Resolve(src.FileID)
		if err != nil {
			return "", models.WrapError(models.ErrParseFailed, err, "resolving upload")
		}
		out.FileID = file.FileID
		data, err := os.ReadFile(file.Path)
		if err != nil {
			return "", models.WrapError(models.ErrParseFailed, err, "reading upload %s", file.Filename)
		}
		format := DetectFormat(file.Filename, file.MimeType)
		return s.parseBytes(ctx, in, format, data, file.Filename, out)

	default:
		return "", models.NewError(models.ErrUnsupportedSource, "unknown source type %q", src.Type)
	}
}

func (s *Service) parseBytes(ctx context.Context, in ResolveInput, format InputFormat, data []byte, name string, out *Resolved) (string, error) {
	switch format {
	case FormatSpreadsheet:
		return "", models.NewError(models.ErrUnsupportedSource,
			"spreadsheet sources are not supported: %s", name)

	case FormatImage:
		return s.describeImage(ctx, in, data, name)

	default:
		doc, err := s.parsers.Parse(ctx, format, data, name)
		if err != nil {
			return "", err
		}
		if out.Title == "" {
			out.Title = doc.Title
		}
		if doc.PageCount > 0 {
			out.PageCount += doc.PageCount
		}
		out.Format = format
		return doc.Markdown, nil
	}
}

// describeImage extracts text and a description from an image source via the
// vision model.
func (s *Service) describeImage(ctx context.Context, in ResolveInput, data []byte, name string) (string, error) {
	if s.gateway == nil {
		return "", models.NewError(models.ErrLLMUnavailable, "image source %s requires a vision model", name)
	}
	resp, err := s.gateway.Call(ctx, llm.Request{
		Provider:   in.Provider,
		Model:      in.Model,
		UserPrompt: visionInstruction,
		Attachments: []llm.Attachment{
			{MIMEType: MIMEForImage(name), Data: data},
		},
		StepName: "ingest_image_source",
		APIKey:   in.APIKey,
	})
	if err != nil {
		return "", models.WrapError(models.ErrParseFailed, err, "describing image source %s", name)
	}
	return resp.Text, nil
}

func (s *Service) writeSessionSource(sessionDir, content string) (string, error) {
	dir := filepath.Join(sessionDir, "source")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", models.WrapError(models.ErrInternal, err, "creating source dir")
	}
	path := filepath.Join(dir, "content.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", models.WrapError(models.ErrInternal, err, "writing source file")
	}
	return path, nil
}

// HashContent returns the SHA-256 hex digest of content's UTF-8 bytes.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
