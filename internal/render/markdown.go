// Package render converts structural elements into chapter markdown:
// per-element conversion, page-footer filtering, multi-page table
// merging, and whole-chapter assembly with frontmatter, callouts, and
// cross-references.
package render

import (
	"fmt"
	"strings"

	"github.com/pagekeep/pagekeep/internal/docmodel"
)

// TablePlaceholder replaces a table that could not be converted. A
// single malformed table degrades to this marker instead of failing the
// chapter.
const TablePlaceholder = "*[Table content could not be rendered]*"

// Element converts one structural element to markdown. An empty string
// means the element produces no output (empty text, pictures, empty
// lists).
func Element(el docmodel.Element) string {
	switch el.Label {
	case docmodel.LabelText:
		return strings.TrimSpace(el.Text)
	case docmodel.LabelSectionHeader:
		return headingMarkdown(el)
	case docmodel.LabelTable:
		return tableMarkdown(el)
	case docmodel.LabelPicture:
		// Pictures are suppressed outright; scanned exports fill them
		// with page decorations and logos.
		return ""
	case docmodel.LabelCode:
		return codeMarkdown(el)
	case docmodel.LabelList:
		return listMarkdown(el)
	default:
		return strings.TrimSpace(el.Text)
	}
}

// headingMarkdown shifts heading levels down one step: the chapter title
// absorbs level 1, so a level-1 sub-heading renders as "##". Capped at
// six markers.
func headingMarkdown(el docmodel.Element) string {
	text := strings.TrimSpace(el.Text)
	if text == "" {
		return ""
	}
	level := el.Level
	if level < 1 {
		level = 1
	}
	if level+1 > 6 {
		level = 5
	}
	return strings.Repeat("#", level+1) + " " + text
}

// tableMarkdown converts a table grid into a GitHub-flavored markdown
// table. The first row is the header; spanned cells repeated by the
// converter are deduplicated; short rows are padded to the header width.
func tableMarkdown(el docmodel.Element) string {
	if el.Table == nil {
		return ""
	}
	grid := el.Table.Grid
	if len(grid) < 2 {
		// Header plus at least one data row, otherwise nothing usable.
		return ""
	}

	header := dedupRow(grid[0])
	if len(header) == 0 {
		return TablePlaceholder
	}

	headerTexts := make([]string, 0, len(header))
	for _, cell := range header {
		headerTexts = append(headerTexts, cleanCellText(cell.Text))
	}
	cols := len(headerTexts)

	var lines []string
	lines = append(lines, "| "+strings.Join(headerTexts, " | ")+" |")
	sep := make([]string, cols)
	for i := range sep {
		sep[i] = "---"
	}
	lines = append(lines, "| "+strings.Join(sep, " | ")+" |")

	for _, row := range grid[1:] {
		cells := dedupRow(row)
		texts := make([]string, 0, cols)
		for _, cell := range cells {
			texts = append(texts, cleanCellText(cell.Text))
		}
		for len(texts) < cols {
			texts = append(texts, "")
		}
		lines = append(lines, "| "+strings.Join(texts[:cols], " | ")+" |")
	}

	return strings.Join(lines, "\n")
}

// dedupRow removes cells repeated by column spanning. Cells are keyed by
// start-column offset plus text; the first occurrence wins.
func dedupRow(row []docmodel.Cell) []docmodel.Cell {
	seen := make(map[string]bool, len(row))
	var unique []docmodel.Cell
	for _, cell := range row {
		start := cell.StartCol
		if start == 0 && cell.ColSpan <= 1 {
			start = len(unique)
		}
		key := fmt.Sprintf("%d_%s", start, strings.TrimSpace(cell.Text))
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, cell)
	}
	return unique
}

// cleanCellText collapses whitespace and escapes pipes for table cells.
func cleanCellText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	return strings.ReplaceAll(text, "|", "\\|")
}

func codeMarkdown(el docmodel.Element) string {
	lang := detectCodeLanguage(el.Text)
	return "```" + lang + "\n" + el.Text + "\n```"
}

// detectCodeLanguage guesses a fence language hint from the code text.
func detectCodeLanguage(code string) string {
	lower := strings.ToLower(code)
	switch {
	case strings.Contains(lower, "import ") || strings.Contains(lower, "def "):
		return "python"
	case strings.Contains(code, "{") && strings.Contains(code, "}") && strings.Contains(code, ";"):
		return "c"
	case strings.Contains(lower, "function") || strings.Contains(lower, "const "):
		return "javascript"
	default:
		return ""
	}
}

func listMarkdown(el docmodel.Element) string {
	var lines []string
	for _, item := range el.Items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		lines = append(lines, "- "+text)
	}
	return strings.Join(lines, "\n")
}
