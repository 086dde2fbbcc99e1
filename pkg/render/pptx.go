package render

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// PPTXRenderer writes a minimal Office Open XML presentation: one slide per
// models.Slide, title plus bullet body. No third-party PPTX library with a
// permissive license exists, so the package assembles the OOXML parts
// directly; the format is a zip of fixed XML documents.
type PPTXRenderer struct{}

func (r *PPTXRenderer) Render(_ context.Context, in Input) (string, error) {
	sc := in.Structured
	if len(sc.Slides) == 0 {
		return "", fmt.Errorf("Generation failed: no slides to render")
	}

	path := OutputPath(in.OutDir, sc.Title, in.Kind)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating pptx: %w", err)
	}
	zw := zip.NewWriter(f)

	write := func(name, content string) {
		if err != nil {
			return
		}
		var w io.Writer
		w, err = zw.Create(name)
		if err == nil {
			_, err = io.WriteString(w, content)
		}
	}

	n := len(sc.Slides)
	write("[Content_Types].xml", contentTypesXML(n))
	write("_rels/.rels", rootRelsXML)
	write("ppt/presentation.xml", presentationXML(n))
	write("ppt/_rels/presentation.xml.rels", presentationRelsXML(n))
	for i, slide := range sc.Slides {
		write(fmt.Sprintf("ppt/slides/slide%d.xml", i+1), slideXML(slide.Title, slide.Bullets))
	}

	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing pptx: %w", err)
	}
	return path, nil
}

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>
</Relationships>`

func contentTypesXML(slides int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	for i := 1; i <= slides; i++ {
		fmt.Fprintf(&sb, `
<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	sb.WriteString("\n</Types>")
	return sb.String()
}

func presentationXML(slides int) string {
	var ids strings.Builder
	for i := 1; i <= slides; i++ {
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 255+i, i)
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<p:sldIdLst>` + ids.String() + `</p:sldIdLst>
<p:sldSz cx="12192000" cy="6858000"/>
</p:presentation>`
}

func presentationRelsXML(slides int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for i := 1; i <= slides; i++ {
		fmt.Fprintf(&sb, `
<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i, i)
	}
	sb.WriteString("\n</Relationships>")
	return sb.String()
}

func slideXML(title string, bullets []string) string {
	var body strings.Builder
	for _, b := range bullets {
		fmt.Fprintf(&body, `<a:p><a:r><a:t>%s</a:t></a:r></a:p>`, xmlEscape(b))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr/>
<p:sp>
<p:nvSpPr><p:cNvPr id="2" name="Title"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>
<p:spPr><a:xfrm><a:off x="838200" y="365125"/><a:ext cx="10515600" cy="1325563"/></a:xfrm></p:spPr>
<p:txBody><a:bodyPr/><a:p><a:r><a:rPr lang="en-US" sz="3600" b="1"/><a:t>%s</a:t></a:r></a:p></p:txBody>
</p:sp>
<p:sp>
<p:nvSpPr><p:cNvPr id="3" name="Body"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>
<p:spPr><a:xfrm><a:off x="838200" y="1825625"/><a:ext cx="10515600" cy="4351338"/></a:xfrm></p:spPr>
<p:txBody><a:bodyPr/>%s</p:txBody>
</p:sp>
</p:spTree></p:cSld>
</p:sld>`, xmlEscape(title), body.String())
}

func xmlEscape(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
