package docmodel

import (
	"io"
	"strings"
)

// LoadText reads plain text as a paragraph sequence. Blank lines split
// paragraphs and chapter-opening lines are promoted to section headers,
// the same heuristics used for extracted PDF text.
func LoadText(r io.Reader, name string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Reason: "read text", Err: err}
	}

	doc := &Document{
		Name: strings.TrimSuffix(name, ".txt"),
		refs: make(map[string]*Element),
	}
	doc.Body = pageElements(string(src), 0)

	if len(doc.Body) == 0 {
		return nil, &ParseError{Reason: "document has no elements"}
	}
	return doc, nil
}
