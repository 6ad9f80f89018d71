package render

import (
	"strings"
	"testing"

	"github.com/pagekeep/pagekeep/internal/docmodel"
)

func table(page int, rows ...[]string) docmodel.Element {
	grid := make([][]docmodel.Cell, 0, len(rows))
	for _, row := range rows {
		cells := make([]docmodel.Cell, 0, len(row))
		for i, text := range row {
			cells = append(cells, docmodel.Cell{Text: text, StartCol: i, ColSpan: 1})
		}
		grid = append(grid, cells)
	}
	return docmodel.Element{
		Label: docmodel.LabelTable,
		Page:  page,
		Table: &docmodel.TableData{Grid: grid},
	}
}

func TestElement_Text(t *testing.T) {
	el := docmodel.Element{Label: docmodel.LabelText, Text: "  plain paragraph  "}
	if got := Element(el); got != "plain paragraph" {
		t.Errorf("expected trimmed text, got %q", got)
	}
}

func TestElement_Heading(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{1, "## Section"},
		{2, "### Section"},
		{5, "###### Section"},
		{9, "###### Section"},
	}
	for _, tt := range tests {
		el := docmodel.Element{Label: docmodel.LabelSectionHeader, Text: "Section", Level: tt.level}
		if got := Element(el); got != tt.want {
			t.Errorf("level %d: expected %q, got %q", tt.level, tt.want, got)
		}
	}
}

func TestElement_PictureSuppressed(t *testing.T) {
	el := docmodel.Element{Label: docmodel.LabelPicture, Text: "logo"}
	if got := Element(el); got != "" {
		t.Errorf("expected empty output for picture, got %q", got)
	}
}

func TestElement_List(t *testing.T) {
	el := docmodel.Element{
		Label: docmodel.LabelList,
		Items: []docmodel.Element{
			{Text: "first"},
			{Text: "  "},
			{Text: "second"},
		},
	}
	want := "- first\n- second"
	if got := Element(el); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestElement_CodeLanguageDetection(t *testing.T) {
	tests := []struct {
		code string
		lang string
	}{
		{"import os\ndef main():\n    pass", "python"},
		{"int main() { return 0; }", "c"},
		{"const x = () => {}\nfunction f() {}", "javascript"},
		{"SELECT 1", ""},
	}
	for _, tt := range tests {
		el := docmodel.Element{Label: docmodel.LabelCode, Text: tt.code}
		got := Element(el)
		if !strings.HasPrefix(got, "```"+tt.lang+"\n") {
			t.Errorf("code %q: expected fence language %q, got %q", tt.code, tt.lang, got)
		}
		if !strings.HasSuffix(got, "\n```") {
			t.Errorf("code %q: expected closing fence, got %q", tt.code, got)
		}
	}
}

func TestTableMarkdown_Basic(t *testing.T) {
	el := table(1,
		[]string{"Field", "Type"},
		[]string{"order_id", "int"},
		[]string{"price", "decimal"},
	)
	got := Element(el)
	lines := strings.Split(got, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), got)
	}
	if lines[0] != "| Field | Type |" {
		t.Errorf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "| --- | --- |" {
		t.Errorf("unexpected separator line: %q", lines[1])
	}
	if lines[2] != "| order_id | int |" {
		t.Errorf("unexpected data line: %q", lines[2])
	}
}

func TestTableMarkdown_SpannedCellsDeduplicated(t *testing.T) {
	// A spanning cell repeated for each covered column collapses to one.
	el := docmodel.Element{
		Label: docmodel.LabelTable,
		Table: &docmodel.TableData{Grid: [][]docmodel.Cell{
			{
				{Text: "Merged Header", StartCol: 0, ColSpan: 2},
				{Text: "Merged Header", StartCol: 0, ColSpan: 2},
				{Text: "Other", StartCol: 2, ColSpan: 1},
			},
			{
				{Text: "a", StartCol: 0, ColSpan: 1},
				{Text: "b", StartCol: 1, ColSpan: 1},
				{Text: "c", StartCol: 2, ColSpan: 1},
			},
		}},
	}
	got := Element(el)
	header := strings.Split(got, "\n")[0]
	if header != "| Merged Header | Other |" {
		t.Errorf("expected deduplicated header, got %q", header)
	}
}

func TestTableMarkdown_TooFewRows(t *testing.T) {
	el := table(1, []string{"Only", "Header"})
	if got := Element(el); got != "" {
		t.Errorf("expected empty output for header-only table, got %q", got)
	}
}

func TestTableMarkdown_PipeEscaping(t *testing.T) {
	el := table(1,
		[]string{"Expr", "Result"},
		[]string{"a|b", "ok"},
	)
	got := Element(el)
	if !strings.Contains(got, `a\|b`) {
		t.Errorf("expected escaped pipe in output:\n%s", got)
	}
}

func TestTableMarkdown_ShortRowPadded(t *testing.T) {
	el := table(1,
		[]string{"A", "B", "C"},
		[]string{"only one"},
	)
	got := Element(el)
	lines := strings.Split(got, "\n")
	if lines[2] != "| only one |  |  |" {
		t.Errorf("expected padded row, got %q", lines[2])
	}
}
