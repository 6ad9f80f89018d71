package wikilink

import (
	"path"
	"strings"
)

// FS is the read-only view of one document version's file tree that link
// operations run against. Paths are relative to the version root.
type FS interface {
	// Exists reports whether a file exists at the relative path.
	Exists(rel string) bool
	// List returns the relative paths of files beneath prefix whose base
	// name matches the glob pattern, in lexicographic order.
	List(prefix, glob string) ([]string, error)
	// Read returns a file's content.
	Read(rel string) (string, error)
}

// searchDirs is the fixed resolution priority for link targets.
var searchDirs = [3]string{"notes", "references", "chapters"}

// Resolve maps a link target (a file name without extension) to the
// relative path of the matching markdown file. The three canonical
// directories are checked directly in priority order; failing that, each
// is searched recursively, with matches taken in lexicographic order so
// resolution is deterministic when several files share a base name.
// A miss returns ok=false, never an error: callers decide whether that
// is a broken link or a dropped edge.
func Resolve(fsys FS, target string) (string, bool) {
	if target == "" {
		return "", false
	}
	name := target + ".md"

	for _, dir := range searchDirs {
		rel := path.Join(dir, name)
		if fsys.Exists(rel) {
			return rel, true
		}
	}

	for _, dir := range searchDirs {
		matches, err := fsys.List(dir, name)
		if err != nil {
			continue
		}
		if len(matches) > 0 {
			return matches[0], true
		}
	}

	return "", false
}

// FileType classifies a file by its path prefix.
func FileType(rel string) string {
	switch {
	case strings.HasPrefix(rel, "chapters/"):
		return "chapter"
	case strings.HasPrefix(rel, "notes/"):
		return "note"
	case strings.HasPrefix(rel, "references/"):
		return "reference"
	default:
		return "unknown"
	}
}

// baseName strips the directory and .md extension from a path or target.
func baseName(p string) string {
	return strings.TrimSuffix(path.Base(p), ".md")
}
