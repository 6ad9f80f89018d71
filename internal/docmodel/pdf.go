package docmodel

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

var pdfChapterLine = regexp.MustCompile(`(?i)^(chapter|appendix)\s+[0-9A-Z]+\b`)

// LoadPDF extracts a PDF into the ordered element sequence. Each page's
// text is split into paragraphs at blank lines, and lines that open a
// chapter or appendix become section headers so segmentation can find
// boundaries. Page provenance comes from the PDF page index.
func LoadPDF(r io.Reader, name string) (*Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so write to a temp file.
	tmp, err := os.CreateTemp("", "pagekeep-pdf-*.pdf")
	if err != nil {
		return nil, &ParseError{Reason: "create temp file", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, &ParseError{Reason: "write temp file", Err: err}
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if err != nil {
		pages, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, &ParseError{Reason: "extract pdf text", Err: err}
	}

	doc := &Document{
		Name: strings.TrimSuffix(name, ".pdf"),
		refs: make(map[string]*Element),
	}
	for i, page := range pages {
		doc.Body = append(doc.Body, pageElements(page, i+1)...)
	}
	if len(doc.Body) == 0 {
		return nil, &ParseError{Reason: "document has no elements"}
	}
	return doc, nil
}

// pageElements splits one page of text into paragraph elements,
// promoting chapter-opening lines to section headers.
func pageElements(text string, pageNo int) []Element {
	var elems []Element
	var para []string

	flush := func() {
		if len(para) == 0 {
			return
		}
		elems = append(elems, Element{
			Label: LabelText,
			Text:  strings.Join(para, "\n"),
			Page:  pageNo,
		})
		para = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		if pdfChapterLine.MatchString(line) {
			flush()
			elems = append(elems, Element{
				Label: LabelSectionHeader,
				Text:  line,
				Level: 1,
				Page:  pageNo,
			})
			continue
		}
		para = append(para, line)
	}
	flush()
	return elems
}

func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// extractPdftotext shells out to poppler when the Go library cannot read
// the file. Pages arrive separated by form feeds.
func extractPdftotext(path string) ([]string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}
