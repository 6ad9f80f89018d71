package docmodel

import (
	"strings"
	"testing"
)

const sampleHTML = `<!DOCTYPE html>
<html>
<head><title>Order Protocol</title><style>p { color: red }</style></head>
<body>
<nav><a href="/">home</a></nav>
<h1>Chapter 1 Sessions</h1>
<p>Sessions   use
heartbeats.</p>
<ul><li>first</li><li>second</li></ul>
<table>
<tr><th>Field</th><th>Type</th></tr>
<tr><td>MsgType</td><td>char</td></tr>
</table>
<pre>send(msg)
recv(ack)</pre>
<footer>copyright</footer>
</body>
</html>`

func TestLoadHTML(t *testing.T) {
	doc, err := LoadHTML(strings.NewReader(sampleHTML), "protocol.html")
	if err != nil {
		t.Fatal(err)
	}

	if doc.Name != "Order Protocol" {
		t.Errorf("name = %q, want title tag to win", doc.Name)
	}
	if len(doc.Body) != 5 {
		t.Fatalf("expected 5 elements, got %d: %+v", len(doc.Body), doc.Body)
	}

	h := doc.Body[0]
	if h.Label != LabelSectionHeader || h.Level != 1 || h.Text != "Chapter 1 Sessions" {
		t.Errorf("heading = %+v", h)
	}

	p := doc.Body[1]
	if p.Label != LabelText || p.Text != "Sessions use heartbeats." {
		t.Errorf("paragraph whitespace not collapsed: %+v", p)
	}

	list := doc.Body[2]
	if list.Label != LabelList || len(list.Items) != 2 || list.Items[1].Text != "second" {
		t.Errorf("list = %+v", list)
	}

	table := doc.Body[3]
	if table.Label != LabelTable || table.Table == nil || len(table.Table.Grid) != 2 {
		t.Fatalf("table = %+v", table)
	}
	if table.Table.Grid[0][1].Text != "Type" || table.Table.Grid[1][0].StartCol != 0 {
		t.Errorf("grid = %+v", table.Table.Grid)
	}

	code := doc.Body[4]
	if code.Label != LabelCode || code.Text != "send(msg)\nrecv(ack)" {
		t.Errorf("pre block mangled: %q", code.Text)
	}
}

func TestLoadHTML_ChromeDropped(t *testing.T) {
	doc, err := LoadHTML(strings.NewReader(sampleHTML), "protocol.html")
	if err != nil {
		t.Fatal(err)
	}
	for _, el := range doc.Body {
		if strings.Contains(el.Text, "home") || strings.Contains(el.Text, "copyright") {
			t.Errorf("nav/footer content leaked: %+v", el)
		}
	}
}

func TestLoadHTML_Empty(t *testing.T) {
	if _, err := LoadHTML(strings.NewReader("<html><body></body></html>"), "x.html"); err == nil {
		t.Error("expected error for empty page")
	}
}

func TestLoadCSV(t *testing.T) {
	src := "Field,Type,Notes\nMsgType,char,required\nPrice,int,\"scaled, 4dp\"\n"
	doc, err := LoadCSV(strings.NewReader(src), "fields.csv")
	if err != nil {
		t.Fatal(err)
	}

	if doc.Name != "fields" {
		t.Errorf("name = %q", doc.Name)
	}
	if len(doc.Body) != 1 || doc.Body[0].Label != LabelTable {
		t.Fatalf("body = %+v", doc.Body)
	}

	grid := doc.Body[0].Table.Grid
	if len(grid) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(grid))
	}
	if grid[0][0].Text != "Field" {
		t.Errorf("header = %+v", grid[0])
	}
	if grid[2][2].Text != "scaled, 4dp" {
		t.Errorf("quoted field = %q", grid[2][2].Text)
	}
	if grid[1][1].StartCol != 1 {
		t.Errorf("start col = %d", grid[1][1].StartCol)
	}
}

func TestLoadCSV_Empty(t *testing.T) {
	if _, err := LoadCSV(strings.NewReader(""), "empty.csv"); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestLoadText(t *testing.T) {
	src := "Chapter 1 Sessions\n\nSessions use heartbeats.\nIntervals are 30s.\n\nChapter 2 Orders\n\nOrders need accounts.\n"
	doc, err := LoadText(strings.NewReader(src), "protocol.txt")
	if err != nil {
		t.Fatal(err)
	}

	if doc.Name != "protocol" {
		t.Errorf("name = %q", doc.Name)
	}
	if len(doc.Body) != 4 {
		t.Fatalf("expected 4 elements, got %d: %+v", len(doc.Body), doc.Body)
	}

	if doc.Body[0].Label != LabelSectionHeader || doc.Body[0].Text != "Chapter 1 Sessions" {
		t.Errorf("first header = %+v", doc.Body[0])
	}
	if doc.Body[1].Label != LabelText || doc.Body[1].Text != "Sessions use heartbeats.\nIntervals are 30s." {
		t.Errorf("paragraph = %+v", doc.Body[1])
	}
	if doc.Body[2].Label != LabelSectionHeader || doc.Body[2].Level != 1 {
		t.Errorf("second header = %+v", doc.Body[2])
	}
}

func TestLoadText_AppendixHeader(t *testing.T) {
	doc, err := LoadText(strings.NewReader("Appendix A Codes\n\nTable of codes.\n"), "x.txt")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Body[0].Label != LabelSectionHeader {
		t.Errorf("appendix line not promoted: %+v", doc.Body[0])
	}
}

func TestPageElements_ChapterMidParagraph(t *testing.T) {
	elems := pageElements("The rules in chapter 3 apply.\nMore text.", 7)
	if len(elems) != 1 || elems[0].Label != LabelText {
		t.Errorf("mid-sentence mention must not split: %+v", elems)
	}
	if elems[0].Page != 7 {
		t.Errorf("page = %d", elems[0].Page)
	}
}
