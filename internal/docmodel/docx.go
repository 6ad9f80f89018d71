package docmodel

import (
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// LoadDOCX extracts a Word document into the ordered element sequence.
// Paragraphs with a heading style become section headers at that depth;
// everything else is a text paragraph. DOCX carries no page geometry, so
// Page stays 0.
func LoadDOCX(r io.Reader, name string) (*Document, error) {
	// go-docx needs a ReadSeeker+size, so write to a temp file.
	tmp, err := os.CreateTemp("", "pagekeep-docx-*.docx")
	if err != nil {
		return nil, &ParseError{Reason: "create temp file", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, &ParseError{Reason: "write temp file", Err: err}
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, &ParseError{Reason: "seek temp file", Err: err}
	}

	parsed, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, &ParseError{Reason: "parse docx", Err: err}
	}

	doc := &Document{
		Name: strings.TrimSuffix(name, ".docx"),
		refs: make(map[string]*Element),
	}
	for _, item := range parsed.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		if level := docxHeadingLevel(para); level > 0 {
			doc.Body = append(doc.Body, Element{
				Label: LabelSectionHeader,
				Text:  text,
				Level: level,
			})
			continue
		}
		doc.Body = append(doc.Body, Element{Label: LabelText, Text: text})
	}

	if len(doc.Body) == 0 {
		return nil, &ParseError{Reason: "document has no elements"}
	}
	return doc, nil
}

var docxHeadingStyles = map[string]int{
	"heading1": 1, "heading 1": 1,
	"heading2": 2, "heading 2": 2,
	"heading3": 3, "heading 3": 3,
	"heading4": 4, "heading 4": 4,
	"heading5": 5, "heading 5": 5,
	"heading6": 6, "heading 6": 6,
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	return docxHeadingStyles[strings.ToLower(para.Properties.Style.Val)]
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
