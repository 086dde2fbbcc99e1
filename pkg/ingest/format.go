package ingest

import (
	"path/filepath"
	"strings"
)

// InputFormat is the canonical classification of a source document.
type InputFormat string

const (
	FormatMarkdown    InputFormat = "markdown"
	FormatText        InputFormat = "text"
	FormatHTML        InputFormat = "html"
	FormatPDF         InputFormat = "pdf"
	FormatDOCX        InputFormat = "docx"
	FormatImage       InputFormat = "image"
	FormatSpreadsheet InputFormat = "spreadsheet"
	FormatUnknown     InputFormat = "unknown"
)

var extFormats = map[string]InputFormat{
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".txt":      FormatText,
	".text":     FormatText,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
	".doc":      FormatDOCX,
	".png":      FormatImage,
	".jpg":      FormatImage,
	".jpeg":     FormatImage,
	".gif":      FormatImage,
	".webp":     FormatImage,
	".xls":      FormatSpreadsheet,
	".xlsx":     FormatSpreadsheet,
	".csv":      FormatSpreadsheet,
}

// DetectFormat classifies a file path or URL by extension, falling back to
// the content type when the extension is unknown.
func DetectFormat(pathOrURL, contentType string) InputFormat {
	ext := strings.ToLower(filepath.Ext(stripQuery(pathOrURL)))
	if f, ok := extFormats[ext]; ok {
		return f
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "markdown"):
		return FormatMarkdown
	case strings.Contains(ct, "text/html"):
		return FormatHTML
	case strings.Contains(ct, "application/pdf"):
		return FormatPDF
	case strings.Contains(ct, "wordprocessingml"):
		return FormatDOCX
	case strings.Contains(ct, "image/"):
		return FormatImage
	case strings.Contains(ct, "spreadsheet"), strings.Contains(ct, "text/csv"):
		return FormatSpreadsheet
	case strings.HasPrefix(ct, "text/"):
		return FormatText
	}
	return FormatUnknown
}

// MIMEForImage returns the MIME type for an image file extension.
func MIMEForImage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}

func stripQuery(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}
