package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/mikey/project-digest/internal/core"
)

// DocumentTitle heads the summaries document
const DocumentTitle = "Project Completion Summaries"

// documentFields is the order of the labelled sections below each project heading
var documentFields = []struct {
	label string
	field core.Field
}{
	{"Client Name:", core.FieldClientName},
	{"Use Case:", core.FieldUseCase},
	{"Industry:", core.FieldIndustry},
	{"Completion Date:", core.FieldCompletionDate},
	{"Project Objectives:", core.FieldProjectObjectives},
	{"Business Challenges:", core.FieldBusinessChallenges},
	{"Our Approach:", core.FieldOurApproach},
	{"Value Created:", core.FieldValueCreated},
	{"Measures of Success:", core.FieldMeasuresOfSuccess},
}

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DocxRenderer writes records as a WordprocessingML document
type DocxRenderer struct{}

// NewDocxRenderer creates a new DocxRenderer
func NewDocxRenderer() *DocxRenderer {
	return &DocxRenderer{}
}

// RenderDocument returns the .docx bytes. Identical input gives identical bytes.
func (r *DocxRenderer) RenderDocument(records []core.Record) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	document, err := documentXML(records)
	if err != nil {
		return nil, fmt.Errorf("failed to build document body: %w", err)
	}

	parts := []struct {
		name string
		body []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
		{"word/styles.xml", []byte(stylesXML)},
		{"word/document.xml", document},
	}

	for _, p := range parts {
		// zero Modified keeps the archive stable across runs
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", p.name, err)
		}
		if _, err := w.Write(p.body); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish document: %w", err)
	}
	return buf.Bytes(), nil
}

func documentXML(records []core.Record) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="` + wordNS + `"><w:body>`)

	if err := paragraph(&b, "Title", DocumentTitle); err != nil {
		return nil, err
	}
	for i := range records {
		rec := &records[i]
		if err := paragraph(&b, "Heading1", rec.ProjectTitle); err != nil {
			return nil, err
		}
		for _, f := range documentFields {
			if err := paragraph(&b, "Heading2", f.label); err != nil {
				return nil, err
			}
			if err := paragraph(&b, "", rec.Get(f.field)); err != nil {
				return nil, fmt.Errorf("%s of %q: %w", f.field, rec.ProjectTitle, err)
			}
		}
		b.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
	}

	b.WriteString(`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/>` +
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`)
	return b.Bytes(), nil
}

// paragraph writes one paragraph; line breaks in text become w:br
func paragraph(w io.Writer, style, text string) error {
	var b strings.Builder
	b.WriteString("<w:p>")
	if style != "" {
		b.WriteString(`<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`)
	}
	b.WriteString("<w:r>")
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteString("<w:br/>")
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		if err := xml.EscapeText(&b, []byte(line)); err != nil {
			return err
		}
		b.WriteString("</w:t>")
	}
	b.WriteString("</w:r></w:p>")

	_, err := io.WriteString(w, b.String())
	return err
}

const contentTypesXML = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`</Types>`

const packageRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

const stylesXML = xml.Header + `<w:styles xmlns:w="` + wordNS + `">` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/>` +
	`<w:rPr><w:sz w:val="22"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/>` +
	`<w:pPr><w:spacing w:after="240"/></w:pPr><w:rPr><w:sz w:val="56"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/>` +
	`<w:pPr><w:keepNext/><w:spacing w:before="480" w:after="120"/><w:outlineLvl w:val="0"/></w:pPr>` +
	`<w:rPr><w:b/><w:sz w:val="32"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/>` +
	`<w:pPr><w:keepNext/><w:spacing w:before="200" w:after="60"/><w:outlineLvl w:val="1"/></w:pPr>` +
	`<w:rPr><w:b/><w:sz w:val="26"/></w:rPr></w:style>` +
	`</w:styles>`
