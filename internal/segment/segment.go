// Package segment partitions a document's ordered element sequence into
// chapter boundaries.
package segment

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pagekeep/pagekeep/internal/docmodel"
)

var chapterPattern = regexp.MustCompile(`(?i)^Chapter\s+(\d+)`)

// Boundary delimits a contiguous run of elements belonging to one
// chapter. Boundaries are contiguous: End of boundary i equals Start of
// boundary i+1, and the final End equals the element count.
type Boundary struct {
	ChapterNumber int
	Title         string
	Start         int
	End           int
}

// Elements returns the boundary's slice of the full element sequence.
func (b Boundary) Elements(elems []docmodel.Element) []docmodel.Element {
	return elems[b.Start:b.End]
}

// ChapterNumber reports whether the element opens a new chapter: a
// level-1 section header whose text matches "Chapter N". The captured
// number is returned verbatim.
func ChapterNumber(el docmodel.Element) (int, bool) {
	if el.Label != docmodel.LabelSectionHeader || el.Level != 1 {
		return 0, false
	}
	m := chapterPattern.FindStringSubmatch(el.Text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Boundaries scans the element sequence in order and returns the chapter
// boundaries. A document with no chapter headings yields a single
// synthetic "Frontmatter" chapter numbered 0 covering everything before
// the first chapter heading (the whole document when none exists).
func Boundaries(elems []docmodel.Element) []Boundary {
	var boundaries []Boundary
	for i, el := range elems {
		num, ok := ChapterNumber(el)
		if !ok {
			continue
		}
		if len(boundaries) > 0 {
			boundaries[len(boundaries)-1].End = i
		}
		boundaries = append(boundaries, Boundary{
			ChapterNumber: num,
			Title:         el.Text,
			Start:         i,
			End:           len(elems),
		})
	}

	if len(boundaries) == 0 {
		return []Boundary{frontmatterBoundary(elems)}
	}
	return boundaries
}

func frontmatterBoundary(elems []docmodel.Element) Boundary {
	end := len(elems)
	for i, el := range elems {
		if _, ok := ChapterNumber(el); ok {
			end = i
			break
		}
	}
	return Boundary{ChapterNumber: 0, Title: "Frontmatter", Start: 0, End: end}
}

// Issues reports duplicate and out-of-order chapter numbers. Converter
// output takes chapter numbers verbatim from the headings, so a scanned
// document can legitimately produce either; the pipeline logs these
// rather than rejecting the document.
func Issues(boundaries []Boundary) []string {
	var issues []string
	seen := make(map[int]bool)
	prev := 0
	for _, b := range boundaries {
		if seen[b.ChapterNumber] {
			issues = append(issues, fmt.Sprintf("duplicate chapter number %d (%q)", b.ChapterNumber, b.Title))
		}
		seen[b.ChapterNumber] = true
		if b.ChapterNumber < prev {
			issues = append(issues, fmt.Sprintf("chapter number %d (%q) out of order after %d", b.ChapterNumber, b.Title, prev))
		}
		prev = b.ChapterNumber
	}
	return issues
}
