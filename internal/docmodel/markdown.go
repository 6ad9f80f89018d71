package docmodel

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// LoadMarkdown parses a markdown export into the same ordered element
// sequence Load produces for JSON, so one segmenter serves both input
// formats. Headings become section headers with their markdown level,
// fenced blocks become code elements, lists become list elements, and
// everything else is collected into text paragraphs. Markdown carries no
// page provenance, so Page stays 0 throughout.
func LoadMarkdown(r io.Reader, name string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Reason: "read markdown", Err: err}
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	doc := &Document{
		Name: strings.TrimSuffix(strings.TrimSuffix(name, ".md"), ".markdown"),
		refs: make(map[string]*Element),
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			doc.Body = append(doc.Body, Element{
				Label: LabelSectionHeader,
				Text:  string(node.Text(src)),
				Level: node.Level,
			})
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			doc.Body = append(doc.Body, Element{
				Label: LabelCode,
				Text:  blockLines(n, src),
			})
		case *ast.List:
			items := listItems(node, src)
			if len(items) > 0 {
				doc.Body = append(doc.Body, Element{Label: LabelList, Items: items})
			}
		default:
			if t := inlineText(n, src); t != "" {
				doc.Body = append(doc.Body, Element{Label: LabelText, Text: t})
			}
		}
	}

	return doc, nil
}

func listItems(list *ast.List, src []byte) []Element {
	var items []Element
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		if t := inlineText(li, src); t != "" {
			items = append(items, Element{Label: LabelText, Text: t})
		}
	}
	return items
}

// blockLines returns the raw source lines of a block node.
func blockLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// inlineText flattens a node's text content, following nested inlines.
// Blocks without inline children fall back to their raw source lines.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(inlineText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
