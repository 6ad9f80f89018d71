package wikilink

import (
	"log/slog"
	"sort"
)

// Node is one markdown file in the link graph. LinkedFrom is the exact
// transpose of all LinksTo edges across the node set: for every node A
// with B in A.LinksTo, B.LinkedFrom contains A.
type Node struct {
	FilePath   string   `json:"file_path"`
	FileType   string   `json:"file_type"`
	Title      string   `json:"title"`
	LinksTo    []string `json:"links_to"`
	LinkedFrom []string `json:"linked_from"`
}

// outgoing is the phase-one product: a node with only its outgoing
// edges. Phase two assembles the final graph as a new structure instead
// of mutating these in place.
type outgoing struct {
	filePath string
	fileType string
	title    string
	linksTo  []string
}

// BuildGraph computes the full bidirectional link graph for a document
// version. Unresolvable links contribute no edge; rendering broken-link
// markers is a display concern, not a graph concern. The graph is
// recomputed from the live file set on every call.
func BuildGraph(fsys FS, log *slog.Logger) (map[string]*Node, error) {
	files, err := fsys.List("", "*.md")
	if err != nil {
		return nil, err
	}

	// Phase one: outgoing edges only.
	nodes := make([]outgoing, 0, len(files))
	for _, file := range files {
		content, err := fsys.Read(file)
		if err != nil {
			log.Warn("skipping unreadable file in graph build", "file", file, "error", err)
			continue
		}

		targets := make(map[string]bool)
		for _, link := range Parse(content) {
			if resolved, ok := Resolve(fsys, link.Target); ok {
				targets[resolved] = true
			}
		}
		linksTo := make([]string, 0, len(targets))
		for t := range targets {
			linksTo = append(linksTo, t)
		}
		sort.Strings(linksTo)

		nodes = append(nodes, outgoing{
			filePath: file,
			fileType: FileType(file),
			title:    ExtractTitle(content, file),
			linksTo:  linksTo,
		})
	}

	// Phase two: invert edges into a fresh structure.
	graph := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		graph[n.filePath] = &Node{
			FilePath:   n.filePath,
			FileType:   n.fileType,
			Title:      n.title,
			LinksTo:    n.linksTo,
			LinkedFrom: []string{},
		}
	}
	for _, n := range nodes {
		for _, target := range n.linksTo {
			if dest, ok := graph[target]; ok {
				dest.LinkedFrom = append(dest.LinkedFrom, n.filePath)
			}
		}
	}

	return graph, nil
}
