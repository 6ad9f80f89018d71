// Package wikilink parses [[target]] cross-references from markdown,
// resolves them to files within a document version's tree, and derives
// backlinks and the bidirectional link graph.
package wikilink

import (
	"regexp"
	"strings"
)

// linkPattern matches [[target]] or [[target#anchor]]. Targets exclude
// "]" and "#"; the anchor runs from "#" to the closing brackets. There
// is no escaping mechanism: an unterminated "[[" simply never matches.
var linkPattern = regexp.MustCompile(`\[\[([^\]#]+)(#[^\]]+)?\]\]`)

// Link is one parsed wikilink occurrence.
type Link struct {
	Target string
	Anchor string
	Raw    string
}

// String re-serializes the link in wikilink form.
func (l Link) String() string {
	if l.Anchor != "" {
		return "[[" + l.Target + "#" + l.Anchor + "]]"
	}
	return "[[" + l.Target + "]]"
}

// Parse extracts every wikilink from content in textual order.
func Parse(content string) []Link {
	matches := linkPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		link := Link{
			Target: strings.TrimSpace(m[1]),
			Raw:    m[0],
		}
		if m[2] != "" {
			link.Anchor = strings.TrimSpace(m[2][1:]) // drop leading "#"
		}
		links = append(links, link)
	}
	return links
}
