// Package toc reconstructs a nested table of contents from a flat,
// order-and-level-tagged sequence of sections or headings.
package toc

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Section is one flat input item.
type Section struct {
	ID         string
	Title      string
	Level      int
	Page       int
	OrderIndex int
}

// Entry is one node of the nested table of contents. Every child's
// level is strictly greater than its parent's, and children keep the
// relative order of the flat input.
type Entry struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Level    int      `json:"level"`
	Page     int      `json:"page_number,omitempty"`
	Children []*Entry `json:"children"`
}

// Build nests a flat section list into a tree. Sections are sorted by
// order index, then attached with a single stack rule: the parent is the
// nearest stack entry with a strictly lower level; after attaching,
// every stack entry at the same or deeper level is popped and the new
// entry pushed. The one rule covers siblings, returns to shallower
// levels, and descent.
func Build(sections []Section) []*Entry {
	if len(sections) == 0 {
		return []*Entry{}
	}

	sorted := make([]Section, len(sections))
	copy(sorted, sections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OrderIndex < sorted[j].OrderIndex
	})

	var roots []*Entry
	var stack []*Entry

	for _, s := range sorted {
		entry := &Entry{
			ID:       s.ID,
			Title:    s.Title,
			Level:    s.Level,
			Page:     s.Page,
			Children: []*Entry{},
		}

		parent := findParent(stack, entry.Level)
		if parent != nil {
			parent.Children = append(parent.Children, entry)
		} else {
			roots = append(roots, entry)
		}

		for len(stack) > 0 && stack[len(stack)-1].Level >= entry.Level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, entry)
	}

	return roots
}

// findParent scans the stack from the top for the nearest entry with a
// strictly lower level.
func findParent(stack []*Entry, level int) *Entry {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Level < level {
			return stack[i]
		}
	}
	return nil
}

// Validate checks the flat input for hierarchy defects: level gaps
// (a level jump deeper than one step) and order-index discontinuities.
// It reports issues as human-readable strings and never fails.
func Validate(sections []Section) []string {
	var issues []string
	if len(sections) == 0 {
		return issues
	}

	sorted := make([]Section, len(sections))
	copy(sorted, sections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OrderIndex < sorted[j].OrderIndex
	})

	prevLevel := 0
	for i, s := range sorted {
		if s.Level > prevLevel+1 {
			issues = append(issues, fmt.Sprintf(
				"section %q (level %d) has gap in hierarchy after level %d",
				s.Title, s.Level, prevLevel))
		}
		if s.OrderIndex != i {
			issues = append(issues, fmt.Sprintf(
				"section %q has order index %d but expected %d",
				s.Title, s.OrderIndex, i))
		}
		prevLevel = s.Level
	}

	return issues
}

// MaxDepth returns the deepest nesting level of the tree, 1-based.
func MaxDepth(entries []*Entry) int {
	depth := 0
	for _, e := range entries {
		d := 1
		if child := MaxDepth(e.Children); child > 0 {
			d += child
		}
		if d > depth {
			depth = d
		}
	}
	return depth
}

var headingPattern = regexp.MustCompile(`(?m)^(#{2,6})\s+(.+)$`)

// FromMarkdown extracts the sub-heading outline of one chapter's
// markdown (## through ######) and nests it with the same stack rule.
// Frontmatter is skipped; entry IDs derive from the chapter ID.
func FromMarkdown(content, chapterID string) []*Entry {
	if strings.HasPrefix(content, "---") {
		parts := strings.SplitN(content, "---", 3)
		if len(parts) == 3 {
			content = parts[2]
		}
	}

	var sections []Section
	for _, m := range headingPattern.FindAllStringSubmatch(content, -1) {
		sections = append(sections, Section{
			ID:         fmt.Sprintf("%s_%d", chapterID, len(sections)),
			Title:      strings.TrimSpace(m[2]),
			Level:      len(m[1]),
			OrderIndex: len(sections),
		})
	}

	return Build(sections)
}
