package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pdfBodyFont    = "Helvetica"
	pdfPageWidth   = 190.0 // usable width in mm on A4 with default margins
	pdfImageWidth  = 150.0
	pdfTitleSize   = 22.0
	pdfHeadingSize = 15.0
	pdfBodySize    = 11.0
)

// ArticlePDFRenderer lays out the structured document as a paginated PDF:
// title page header, executive summary, then one block per section with its
// generated image when available.
type ArticlePDFRenderer struct{}

func (r *ArticlePDFRenderer) Render(_ context.Context, in Input) (string, error) {
	sc := in.Structured
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(sc.Title, true)
	pdf.AddPage()

	pdf.SetFont(pdfBodyFont, "B", pdfTitleSize)
	pdf.MultiCell(pdfPageWidth, 10, latin1(sc.Title), "", "L", false)
	pdf.Ln(4)

	if sc.ExecutiveSummary != "" {
		pdf.SetFont(pdfBodyFont, "I", pdfBodySize)
		pdf.MultiCell(pdfPageWidth, 6, latin1(sc.ExecutiveSummary), "", "L", false)
		pdf.Ln(4)
	}

	for _, sec := range sc.Sections {
		pdf.SetFont(pdfBodyFont, "B", pdfHeadingSize)
		pdf.MultiCell(pdfPageWidth, 8, latin1(fmt.Sprintf("%d. %s", sec.ID, sec.Title)), "", "L", false)
		pdf.Ln(1)

		if img, ok := sc.SectionImages[sec.ID]; ok && img.Path != "" && in.EmbedImages {
			opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
			pdf.ImageOptions(img.Path, (210-pdfImageWidth)/2, pdf.GetY(), pdfImageWidth, 0, true, opts, 0, "")
			pdf.Ln(3)
		}

		pdf.SetFont(pdfBodyFont, "", pdfBodySize)
		pdf.MultiCell(pdfPageWidth, 6, latin1(stripMarkdown(sec.Content)), "", "L", false)
		pdf.Ln(5)
	}

	path := OutputPath(in.OutDir, sc.Title, in.Kind)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("writing article pdf: %w", err)
	}
	return path, nil
}

// SlidePDFRenderer renders each slide as one landscape PDF page.
type SlidePDFRenderer struct{}

func (r *SlidePDFRenderer) Render(_ context.Context, in Input) (string, error) {
	sc := in.Structured
	if len(sc.Slides) == 0 {
		return "", fmt.Errorf("Generation failed: no slides to render")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(sc.Title, true)

	for _, slide := range sc.Slides {
		pdf.AddPage()
		pdf.SetFont(pdfBodyFont, "B", 26)
		pdf.MultiCell(277, 14, latin1(slide.Title), "", "L", false)
		pdf.Ln(6)

		pdf.SetFont(pdfBodyFont, "", 15)
		for _, bullet := range slide.Bullets {
			pdf.MultiCell(277, 9, latin1("• "+bullet), "", "L", false)
			pdf.Ln(1)
		}
	}

	path := OutputPath(in.OutDir, sc.Title, in.Kind)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("writing slide pdf: %w", err)
	}
	return path, nil
}

// stripMarkdown removes the markdown syntax that reads poorly in plain PDF
// text: emphasis markers, inline code ticks, link targets.
func stripMarkdown(s string) string {
	replacer := strings.NewReplacer("**", "", "*", "", "`", "", "__", "", "#", "")
	out := replacer.Replace(s)
	for {
		start := strings.Index(out, "](")
		if start < 0 {
			break
		}
		end := strings.Index(out[start:], ")")
		if end < 0 {
			break
		}
		out = out[:start+1] + out[start+end+1:]
	}
	out = strings.ReplaceAll(out, "[", "")
	out = strings.ReplaceAll(out, "]", "")
	return strings.TrimSpace(out)
}

// latin1 converts UTF-8 to the cp1252-ish charset the core PDF fonts use,
// substituting '?' for unmappable runes.
func latin1(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r < 256 {
			sb.WriteByte(byte(r))
		} else {
			sb.WriteByte('?')
		}
	}
	return sb.String()
}
