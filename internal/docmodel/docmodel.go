// Package docmodel holds the in-memory representation of a structured
// document export and the loaders that produce it.
//
// The upstream converter emits a JSON document whose elements live in
// per-kind arrays (texts, tables, pictures, groups) and are stitched
// together by "$ref" pointers from an ordered body list. Load resolves
// those references once and produces a flat, ordered element sequence;
// reading order is the only link between an element and its boundary
// context, so Body order is load-bearing.
package docmodel

import (
	"encoding/json"
	"fmt"
	"io"
)

// Element labels produced by the upstream converter.
const (
	LabelText          = "text"
	LabelSectionHeader = "section_header"
	LabelTable         = "table"
	LabelPicture       = "picture"
	LabelCode          = "code"
	LabelList          = "list"
	LabelPageHeader    = "page_header"
	LabelPageFooter    = "page_footer"
)

// Cell is one table cell. Converters repeat spanned cells for every
// column they cover; StartCol and ColSpan let the renderer deduplicate.
type Cell struct {
	Text     string
	ColSpan  int
	StartCol int
}

// TableData is the row/column grid of a table element. The first row is
// the header row.
type TableData struct {
	Grid [][]Cell
}

// Element is one atomic unit of the source document. Immutable after load.
type Element struct {
	Ref   string
	Label string
	Text  string
	Level int // heading depth, section headers only
	Page  int // 0 when the converter supplied no provenance

	// PageEnd is set when a multi-page table merge widened the element's
	// page span; 0 means the element lives on a single page.
	PageEnd int

	Table *TableData // table elements only
	Items []Element  // list elements only, resolved children in order
}

// LastPage returns the final page the element touches.
func (e Element) LastPage() int {
	if e.PageEnd > e.Page {
		return e.PageEnd
	}
	return e.Page
}

// Document is a fully resolved document: an ordered body sequence plus a
// reference table for addressing individual elements.
type Document struct {
	Name string
	Body []Element

	refs map[string]*Element
}

// Resolve looks up an element by its converter reference.
func (d *Document) Resolve(ref string) (*Element, bool) {
	el, ok := d.refs[ref]
	return el, ok
}

// ParseError reports a malformed or unreadable document export.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse document: %s: %v", e.Reason, e.Err)
	}
	return "parse document: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// Wire shapes of the converter JSON.

type rawRef struct {
	Ref string `json:"$ref"`
}

type rawProv struct {
	PageNo int `json:"page_no"`
}

type rawCell struct {
	Text     string `json:"text"`
	ColSpan  int    `json:"col_span"`
	StartCol int    `json:"start_col_offset_idx"`
}

type rawTableData struct {
	Grid [][]rawCell `json:"grid"`
}

type rawElement struct {
	SelfRef  string        `json:"self_ref"`
	Label    string        `json:"label"`
	Text     string        `json:"text"`
	Level    int           `json:"level"`
	Prov     []rawProv     `json:"prov"`
	Data     *rawTableData `json:"data"`
	Children []rawRef      `json:"children"`
}

type rawDocument struct {
	Name     string       `json:"name"`
	Texts    []rawElement `json:"texts"`
	Tables   []rawElement `json:"tables"`
	Pictures []rawElement `json:"pictures"`
	Groups   []rawElement `json:"groups"`
	Body     struct {
		Children []rawRef `json:"children"`
	} `json:"body"`
}

// Load parses a converter JSON export into a Document. The reference
// table is built once here; body children that point at unknown
// references are dropped rather than failing the whole load.
func Load(r io.Reader) (*Document, error) {
	var raw rawDocument
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &ParseError{Reason: "invalid json", Err: err}
	}

	doc := &Document{
		Name: raw.Name,
		refs: make(map[string]*Element),
	}

	index := func(elems []rawElement) {
		for i := range elems {
			el := convertElement(elems[i])
			doc.refs[elems[i].SelfRef] = &el
		}
	}
	index(raw.Texts)
	index(raw.Tables)
	index(raw.Pictures)
	index(raw.Groups)

	// Resolve list children now so the renderer never chases references.
	for _, g := range raw.Groups {
		el := doc.refs[g.SelfRef]
		for _, childRef := range g.Children {
			if child, ok := doc.refs[childRef.Ref]; ok {
				el.Items = append(el.Items, *child)
			}
		}
	}

	for _, childRef := range raw.Body.Children {
		el, ok := doc.refs[childRef.Ref]
		if !ok {
			continue
		}
		doc.Body = append(doc.Body, *el)
	}

	if len(doc.Body) == 0 && len(doc.refs) == 0 {
		return nil, &ParseError{Reason: "document has no elements"}
	}

	return doc, nil
}

func convertElement(raw rawElement) Element {
	el := Element{
		Ref:   raw.SelfRef,
		Label: raw.Label,
		Text:  raw.Text,
		Level: raw.Level,
	}
	if len(raw.Prov) > 0 {
		el.Page = raw.Prov[0].PageNo
	}
	if raw.Data != nil {
		grid := make([][]Cell, 0, len(raw.Data.Grid))
		for _, row := range raw.Data.Grid {
			cells := make([]Cell, 0, len(row))
			for _, c := range row {
				cells = append(cells, Cell{Text: c.Text, ColSpan: c.ColSpan, StartCol: c.StartCol})
			}
			grid = append(grid, cells)
		}
		el.Table = &TableData{Grid: grid}
	}
	return el
}
