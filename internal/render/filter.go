package render

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/pagekeep/pagekeep/internal/docmodel"
)

// footerRule is one pattern→drop rule. The list is data-driven so new
// footer shapes can be added without touching the filter loop; patterns
// are compiled once at package init.
type footerRule struct {
	name string
	re   *regexp.Regexp
}

var footerRules = []footerRule{
	{"non-confidential", regexp.MustCompile(`(?i)^Non-Confidential\s*$`)},
	{"confidential", regexp.MustCompile(`(?i)^Confidential\s*$`)},
	{"bare-page-number", regexp.MustCompile(`^\d+\s*$`)},
	{"document-title-footer", regexp.MustCompile(`(?i)^Capital Market Trading System.*Protocol.*$`)},
	{"protocol-footer", regexp.MustCompile(`(?i)^Trading System.*Protocol.*$`)},
	{"page-n", regexp.MustCompile(`(?i)^Page\s+\d+\s*$`)},
}

// maxTableMergeGap is the furthest forward page distance a continuation
// table may sit from the table it continues.
const maxTableMergeGap = 3

// FilterFooters drops repeated page furniture: elements the converter
// already tagged as page headers/footers, and text or section-header
// elements whose full text matches a footer pattern. Tables, code,
// lists, and pictures are never filtered here.
func FilterFooters(elems []docmodel.Element, log *slog.Logger) []docmodel.Element {
	filtered := make([]docmodel.Element, 0, len(elems))
	dropped := 0

	for _, el := range elems {
		switch el.Label {
		case docmodel.LabelPageHeader, docmodel.LabelPageFooter:
			dropped++
			continue
		case docmodel.LabelTable, docmodel.LabelCode, docmodel.LabelList, docmodel.LabelPicture:
			filtered = append(filtered, el)
			continue
		case docmodel.LabelText, docmodel.LabelSectionHeader:
			if el.Text == "" {
				continue
			}
			if rule := matchFooter(el.Text); rule != "" {
				dropped++
				log.Debug("filtered footer element", "text", el.Text, "rule", rule)
				continue
			}
			filtered = append(filtered, el)
		default:
			// Unknown label, keep it.
			filtered = append(filtered, el)
		}
	}

	if dropped > 0 {
		log.Debug("filtered footer elements", "count", dropped)
	}
	return filtered
}

func matchFooter(text string) string {
	for _, rule := range footerRules {
		if rule.re.MatchString(text) {
			return rule.name
		}
	}
	return ""
}

// MergeTables joins tables that continue across page breaks. A table is
// a continuation when only text or picture elements separate it from the
// run's first table, its header row is textually identical, and its page
// is at most maxTableMergeGap pages past that first table. The merge
// stops at the first section header, a differing header row, or a wider
// page gap.
func MergeTables(elems []docmodel.Element) []docmodel.Element {
	merged := make([]docmodel.Element, 0, len(elems))
	i := 0

	for i < len(elems) {
		el := elems[i]
		if el.Label != docmodel.LabelTable {
			merged = append(merged, el)
			i++
			continue
		}

		headers := tableHeaders(el)
		var continuations []docmodel.Element

		j := i + 1
	scan:
		for j < len(elems) {
			next := elems[j]
			switch next.Label {
			case docmodel.LabelSectionHeader:
				break scan
			case docmodel.LabelTable:
				if !sameHeaders(headers, tableHeaders(next)) {
					break scan
				}
				// Gap is anchored at the run's first table, not the
				// previous continuation.
				gap := next.Page - el.Page
				if gap < 0 || gap > maxTableMergeGap {
					break scan
				}
				continuations = append(continuations, next)
				j++
			case docmodel.LabelText, docmodel.LabelPicture:
				j++
			default:
				break scan
			}
		}

		if len(continuations) > 0 {
			merged = append(merged, mergeTableElements(el, continuations))
			i = j
		} else {
			merged = append(merged, el)
			i++
		}
	}

	return merged
}

// tableHeaders returns the trimmed texts of the table's first row.
func tableHeaders(el docmodel.Element) []string {
	if el.Table == nil || len(el.Table.Grid) == 0 {
		return nil
	}
	row := el.Table.Grid[0]
	headers := make([]string, 0, len(row))
	for _, cell := range row {
		headers = append(headers, strings.TrimSpace(cell.Text))
	}
	return headers
}

func sameHeaders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return len(a) > 0
}

// mergeTableElements keeps the first table's header row, appends the
// non-header rows of each continuation, and records the widened page
// span on the merged element.
func mergeTableElements(first docmodel.Element, continuations []docmodel.Element) docmodel.Element {
	merged := first
	grid := make([][]docmodel.Cell, 0, len(first.Table.Grid))
	grid = append(grid, first.Table.Grid...)

	for _, cont := range continuations {
		if cont.Table == nil || len(cont.Table.Grid) < 2 {
			continue
		}
		grid = append(grid, cont.Table.Grid[1:]...)
	}

	merged.Table = &docmodel.TableData{Grid: grid}
	merged.PageEnd = continuations[len(continuations)-1].Page
	return merged
}
