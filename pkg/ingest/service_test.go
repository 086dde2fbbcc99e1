package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgen-ai/docgen/pkg/config"
	"github.com/docgen-ai/docgen/pkg/llm"
	"github.com/docgen-ai/docgen/pkg/models"
)

// fakeGateway records vision calls and returns a scripted response.
type fakeGateway struct {
	calls []llm.Request
	text  string
	err   error
}

func (f *fakeGateway) Call(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text, Model: req.Model}, nil
}

func newTestService(t *testing.T, gateway LLMCaller) *Service {
	t.Helper()
	uploads, err := NewUploadStore(t.TempDir())
	require.NoError(t, err)
	return NewService(uploads, NewFetcher(nil, nil), NewParserRegistry(), gateway, nil)
}

func TestResolveTextSources(t *testing.T) {
	svc := newTestService(t, nil)

	got, err := svc.Resolve(context.Background(), ResolveInput{
		Sources: []models.Source{
			{Type: models.SourceText, Text: "# Title\n\nAlpha."},
			{Type: models.SourceText, Text: "Beta."},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "# Title\n\nAlpha.\n\n---\n\nBeta.", got.RawContent)
	assert.Equal(t, HashContent(got.RawContent), got.ContentHash)
	assert.Equal(t, 2, got.SourceCount)
	assert.Equal(t, "Title", got.Title)
	assert.Empty(t, got.InputPath)
}

func TestResolveWritesSessionSourceForDocuments(t *testing.T) {
	svc := newTestService(t, nil)
	sessionDir := t.TempDir()

	got, err := svc.Resolve(context.Background(), ResolveInput{
		Sources:      []models.Source{{Type: models.SourceText, Text: "content"}},
		SessionDir:   sessionDir,
		DocumentKind: true,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sessionDir, "source", "content.md"), got.InputPath)
}

func TestResolveRejectsSpreadsheets(t *testing.T) {
	svc := newTestService(t, nil)
	upload, err := svc.Uploads().Save("report.xlsx", strings.NewReader("binary"))
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), ResolveInput{
		Sources: []models.Source{{Type: models.SourceFile, FileID: upload.FileID}},
	})
	require.Error(t, err)
	assert.Equal(t, models.ErrUnsupportedSource, models.CodeOf(err))
}

func TestResolveEmptySources(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Resolve(context.Background(), ResolveInput{})
	require.Error(t, err)
	assert.Equal(t, models.ErrUnsupportedSource, models.CodeOf(err))
}

func TestResolveImageSourceUsesVision(t *testing.T) {
	gateway := &fakeGateway{text: "Extracted text.\n\nA diagram of the system."}
	svc := newTestService(t, gateway)
	upload, err := svc.Uploads().Save("diagram.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	got, err := svc.Resolve(context.Background(), ResolveInput{
		Sources:  []models.Source{{Type: models.SourceFile, FileID: upload.FileID}},
		Provider: config.ProviderGemini,
		Model:    "gemini-2.5-flash",
		APIKey:   "k",
	})
	require.NoError(t, err)
	assert.Contains(t, got.RawContent, "Extracted text.")

	require.Len(t, gateway.calls, 1)
	call := gateway.calls[0]
	assert.Equal(t, "ingest_image_source", call.StepName)
	require.Len(t, call.Attachments, 1)
	assert.Equal(t, "image/png", call.Attachments[0].MIMEType)
	assert.Equal(t, []byte("png-bytes"), call.Attachments[0].Data)
}

func TestResolveImageSourceWithoutGateway(t *testing.T) {
	svc := newTestService(t, nil)
	upload, err := svc.Uploads().Save("photo.jpg", strings.NewReader("jpg"))
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), ResolveInput{
		Sources: []models.Source{{Type: models.SourceFile, FileID: upload.FileID}},
	})
	require.Error(t, err)
	assert.Equal(t, models.ErrLLMUnavailable, models.CodeOf(err))
}

func TestResolveURLSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte("# Remote Doc\n\nFrom the network."))
	}))
	defer server.Close()

	svc := newTestService(t, nil)
	got, err := svc.Resolve(context.Background(), ResolveInput{
		Sources: []models.Source{{Type: models.SourceURL, URL: server.URL + "/doc"}},
	})
	require.NoError(t, err)
	assert.Contains(t, got.RawContent, "From the network.")
	assert.Equal(t, "Remote Doc", got.Title)
}

func TestResolveURLFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := newTestService(t, nil)
	_, err := svc.Resolve(context.Background(), ResolveInput{
		Sources: []models.Source{{Type: models.SourceURL, URL: server.URL + "/missing"}},
	})
	require.Error(t, err)
	assert.Equal(t, models.ErrParseFailed, models.CodeOf(err))
}

func TestHashContentStable(t *testing.T) {
	assert.Equal(t, HashContent("abc"), HashContent("abc"))
	assert.NotEqual(t, HashContent("abc"), HashContent("abd"))
	assert.Len(t, HashContent(""), 64)
}
