package wikilink

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/pagekeep/pagekeep/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testFS builds a version tree on disk from relative path → content.
func testFS(t *testing.T, files map[string]string) FS {
	t.Helper()
	store, err := storage.New(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	vfs := store.Version("doc", "v1")
	for rel, content := range files {
		if err := vfs.Write(rel, content); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return vfs
}

func TestResolve_DirectoryPriority(t *testing.T) {
	fsys := testFS(t, map[string]string{
		"notes/shared.md":      "note",
		"references/shared.md": "ref",
		"chapters/shared.md":   "chapter",
	})

	resolved, ok := Resolve(fsys, "shared")
	if !ok || resolved != "notes/shared.md" {
		t.Errorf("expected notes/ to win, got %q (ok=%v)", resolved, ok)
	}
}

func TestResolve_EachDirectory(t *testing.T) {
	fsys := testFS(t, map[string]string{
		"notes/a.md":                   "",
		"references/b.md":              "",
		"chapters/chapter-01-intro.md": "",
	})

	tests := []struct {
		target string
		want   string
	}{
		{"a", "notes/a.md"},
		{"b", "references/b.md"},
		{"chapter-01-intro", "chapters/chapter-01-intro.md"},
	}
	for _, tt := range tests {
		got, ok := Resolve(fsys, tt.target)
		if !ok || got != tt.want {
			t.Errorf("Resolve(%q) = %q (ok=%v), want %q", tt.target, got, ok, tt.want)
		}
	}
}

func TestResolve_Miss(t *testing.T) {
	fsys := testFS(t, map[string]string{"notes/a.md": ""})
	if _, ok := Resolve(fsys, "nonexistent"); ok {
		t.Error("expected miss for unknown target")
	}
	if _, ok := Resolve(fsys, ""); ok {
		t.Error("expected miss for empty target")
	}
}

func TestResolve_Deterministic(t *testing.T) {
	fsys := testFS(t, map[string]string{
		"notes/sub-a/dup.md": "",
		"notes/sub-b/dup.md": "",
	})
	first, ok := Resolve(fsys, "dup")
	if !ok {
		t.Fatal("expected recursive resolution to find dup")
	}
	if first != "notes/sub-a/dup.md" {
		t.Errorf("expected lexicographically first match, got %q", first)
	}
	for range 5 {
		again, _ := Resolve(fsys, "dup")
		if again != first {
			t.Fatalf("resolution not deterministic: %q vs %q", first, again)
		}
	}
}

func TestBacklinks_Scenario(t *testing.T) {
	fsys := testFS(t, map[string]string{
		"notes/a.md":                    "# Note A\n\nsome text\n\nsee [[chapter-02-orders]] for details\n",
		"chapters/chapter-02-orders.md": "---\ntitle: Chapter 2 Orders\n---\n# Chapter 2 Orders\n",
		"notes/unrelated.md":            "nothing linked here\n",
	})

	backlinks, err := Backlinks(fsys, "chapters/chapter-02-orders.md", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(backlinks) != 1 {
		t.Fatalf("expected 1 backlink, got %d", len(backlinks))
	}
	bl := backlinks[0]
	if bl.SourceFile != "notes/a.md" {
		t.Errorf("wrong source file: %q", bl.SourceFile)
	}
	if bl.SourceTitle != "Note A" {
		t.Errorf("wrong source title: %q", bl.SourceTitle)
	}
	if bl.LineNumber != 5 {
		t.Errorf("expected line 5, got %d", bl.LineNumber)
	}
	if !strings.Contains(bl.Snippet, "[[chapter-02-orders]]") {
		t.Errorf("snippet missing link context: %q", bl.Snippet)
	}
}

func TestBacklinks_SelfReferenceExcluded(t *testing.T) {
	fsys := testFS(t, map[string]string{
		"notes/self.md": "links to [[self]]\n",
	})
	backlinks, err := Backlinks(fsys, "notes/self.md", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(backlinks) != 0 {
		t.Errorf("self-reference must not be a backlink, got %+v", backlinks)
	}
}

func TestBacklinks_BrokenLinkByBaseName(t *testing.T) {
	// The target file does not exist; a link naming it still counts
	// because the raw target's base name matches.
	fsys := testFS(t, map[string]string{
		"notes/a.md": "points at [[ghost]]\n",
	})
	backlinks, err := Backlinks(fsys, "notes/ghost.md", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(backlinks) != 1 {
		t.Errorf("expected base-name match to count, got %d", len(backlinks))
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		filename string
		want     string
	}{
		{"frontmatter wins", "---\ntitle: From Frontmatter\n---\n# From Heading\n", "notes/x.md", "From Frontmatter"},
		{"h1 fallback", "# From Heading\n\nbody\n", "notes/x.md", "From Heading"},
		{"humanized filename", "plain body\n", "notes/order-validation-tips.md", "Order Validation Tips"},
		{"multibyte filename", "plain body\n", "notes/über-orders.md", "Über Orders"},
		{"quoted title", "---\ntitle: \"Quoted Title\"\n---\n", "notes/x.md", "Quoted Title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTitle(tt.content, tt.filename); got != tt.want {
				t.Errorf("ExtractTitle = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildGraph_Symmetry(t *testing.T) {
	fsys := testFS(t, map[string]string{
		"notes/a.md":               "# A\n[[b]] and [[chapter-01-x]]\n",
		"notes/b.md":               "# B\n[[a]]\n",
		"chapters/chapter-01-x.md": "# Chapter 1 X\n",
		"references/lonely.md":     "# Lonely\nno links\n",
	})

	graph, err := BuildGraph(fsys, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(graph) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(graph))
	}

	// Every LinksTo edge has a matching LinkedFrom entry and vice versa.
	for path, node := range graph {
		for _, target := range node.LinksTo {
			dest, ok := graph[target]
			if !ok {
				t.Errorf("%s links to unknown node %s", path, target)
				continue
			}
			if !contains(dest.LinkedFrom, path) {
				t.Errorf("%s -> %s edge missing inverse", path, target)
			}
		}
		for _, source := range node.LinkedFrom {
			src, ok := graph[source]
			if !ok {
				t.Errorf("%s linked from unknown node %s", path, source)
				continue
			}
			if !contains(src.LinksTo, path) {
				t.Errorf("%s <- %s inverse edge missing forward", path, source)
			}
		}
	}

	if got := graph["chapters/chapter-01-x.md"].LinkedFrom; len(got) != 1 || got[0] != "notes/a.md" {
		t.Errorf("unexpected chapter inbound edges: %v", got)
	}
	if got := graph["references/lonely.md"]; got.LinkedFrom == nil || len(got.LinksTo) != 0 {
		t.Errorf("isolated node must have empty non-nil edge lists: %+v", got)
	}
}

func TestBuildGraph_BrokenLinksContributeNoEdge(t *testing.T) {
	fsys := testFS(t, map[string]string{
		"notes/a.md": "[[missing-target]]\n",
	})
	graph, err := BuildGraph(fsys, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(graph["notes/a.md"].LinksTo) != 0 {
		t.Errorf("broken link must not create an edge: %v", graph["notes/a.md"].LinksTo)
	}
}

func TestBuildGraph_FileTypes(t *testing.T) {
	fsys := testFS(t, map[string]string{
		"notes/n.md":               "",
		"references/r.md":          "",
		"chapters/chapter-01-c.md": "",
	})
	graph, err := BuildGraph(fsys, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"notes/n.md":               "note",
		"references/r.md":          "reference",
		"chapters/chapter-01-c.md": "chapter",
	}
	for path, ft := range want {
		if graph[path].FileType != ft {
			t.Errorf("%s: expected file type %q, got %q", path, ft, graph[path].FileType)
		}
	}
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
