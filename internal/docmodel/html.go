package docmodel

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// LoadHTML extracts an HTML page into the ordered element sequence.
// Heading tags become section headers, lists and tables keep their
// structure, pre blocks become code, and script/style/nav chrome is
// dropped. The document name comes from the <title> tag when present.
func LoadHTML(r io.Reader, name string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, &ParseError{Reason: "parse html", Err: err}
	}

	doc := &Document{
		Name: strings.TrimSuffix(strings.TrimSuffix(name, ".html"), ".htm"),
		refs: make(map[string]*Element),
	}
	if title := htmlTitle(root); title != "" {
		doc.Name = title
	}

	start := htmlBody(root)
	if start == nil {
		start = root
	}
	htmlWalk(start, doc)

	if len(doc.Body) == 0 {
		return nil, &ParseError{Reason: "document has no elements"}
	}
	return doc, nil
}

func htmlWalk(n *html.Node, doc *Document) {
	if n.Type == html.ElementNode {
		if level := htmlHeadingLevel(n.Data); level > 0 {
			if text := htmlText(n); text != "" {
				doc.Body = append(doc.Body, Element{
					Label: LabelSectionHeader,
					Text:  text,
					Level: level,
				})
			}
			return
		}
		switch n.Data {
		case "script", "style", "nav", "footer", "header":
			return
		case "p", "blockquote":
			if text := htmlText(n); text != "" {
				doc.Body = append(doc.Body, Element{Label: LabelText, Text: text})
			}
			return
		case "pre":
			// Keep verbatim whitespace inside code blocks.
			if text := strings.Trim(htmlRawText(n), "\n"); text != "" {
				doc.Body = append(doc.Body, Element{Label: LabelCode, Text: text})
			}
			return
		case "ul", "ol":
			if items := htmlListItems(n); len(items) > 0 {
				doc.Body = append(doc.Body, Element{Label: LabelList, Items: items})
			}
			return
		case "table":
			if grid := htmlTableGrid(n); len(grid) > 0 {
				doc.Body = append(doc.Body, Element{
					Label: LabelTable,
					Table: &TableData{Grid: grid},
				})
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		htmlWalk(c, doc)
	}
}

func htmlListItems(list *html.Node) []Element {
	var items []Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "li" {
			if text := htmlText(n); text != "" {
				items = append(items, Element{Label: LabelText, Text: text})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(list)
	return items
}

func htmlTableGrid(table *html.Node) [][]Cell {
	var grid [][]Cell
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []Cell
			col := 0
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
					continue
				}
				row = append(row, Cell{Text: htmlText(c), ColSpan: 1, StartCol: col})
				col++
			}
			if len(row) > 0 {
				grid = append(grid, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return grid
}

func htmlHeadingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func htmlText(n *html.Node) string {
	return strings.Join(strings.Fields(htmlRawText(n)), " ")
}

func htmlRawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func htmlTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return htmlText(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := htmlTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func htmlBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := htmlBody(c); b != nil {
			return b
		}
	}
	return nil
}
