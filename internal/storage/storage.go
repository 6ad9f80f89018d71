// Package storage is the path-addressed file store for document
// content. Chapter and note markdown lives in files laid out as
//
//	{base}/{slug}/versions/{version}/{chapters,notes,references}/...
//
// plus a metadata.json and an active_version.txt per document. All
// operations on a version's tree go through relative paths; anything
// resolving outside the version root is rejected.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrNotFound marks a read of a path with no file behind it. A metadata
// row can transiently reference a missing file; callers surface that as
// a dangling reference, distinct from an IO failure.
var ErrNotFound = errors.New("file not found")

// PathError wraps a failed or rejected file store operation.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

var errEscapesRoot = errors.New("path escapes version root")

// Store manages the document file tree under a single base directory.
type Store struct {
	base string
	log  *slog.Logger
}

// New creates the base directory if needed and returns the store.
func New(base string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, &PathError{Op: "init", Path: base, Err: err}
	}
	return &Store{base: base, log: log}, nil
}

// Version returns the per-version file tree view used by link and
// chapter operations.
func (s *Store) Version(slug, version string) *VersionFS {
	return &VersionFS{root: filepath.Join(s.base, slug, "versions", version)}
}

// EnsureDirs creates the version's chapters/notes/references layout.
func (s *Store) EnsureDirs(slug, version string) error {
	root := filepath.Join(s.base, slug, "versions", version)
	for _, dir := range []string{"chapters", "notes", "references"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return &PathError{Op: "ensure dirs", Path: filepath.Join(root, dir), Err: err}
		}
	}
	return nil
}

// SaveChapter writes one chapter's markdown and returns the path of the
// file relative to the version root.
func (s *Store) SaveChapter(slug, version string, chapterNumber int, title, content string) (string, error) {
	if err := s.EnsureDirs(slug, version); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("chapter-%02d-%s.md", chapterNumber, Slugify(title))
	rel := path.Join("chapters", filename)
	if err := s.Version(slug, version).Write(rel, content); err != nil {
		return "", err
	}
	s.log.Info("saved chapter", "slug", slug, "version", version, "chapter", chapterNumber, "path", rel)
	return rel, nil
}

// SaveMetadata writes the version's metadata.json.
func (s *Store) SaveMetadata(slug, version string, metadata map[string]any) error {
	if err := s.EnsureDirs(slug, version); err != nil {
		return err
	}
	out, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return &PathError{Op: "encode metadata", Path: slug + "/" + version, Err: err}
	}
	target := filepath.Join(s.base, slug, "versions", version, "metadata.json")
	if err := os.WriteFile(target, out, 0o644); err != nil {
		return &PathError{Op: "write metadata", Path: target, Err: err}
	}
	return nil
}

// ReadMetadata reads the version's metadata.json.
func (s *Store) ReadMetadata(slug, version string) (map[string]any, error) {
	target := filepath.Join(s.base, slug, "versions", version, "metadata.json")
	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &PathError{Op: "read metadata", Path: target, Err: ErrNotFound}
		}
		return nil, &PathError{Op: "read metadata", Path: target, Err: err}
	}
	var metadata map[string]any
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, &PathError{Op: "decode metadata", Path: target, Err: err}
	}
	return metadata, nil
}

// ActiveVersion reads the document's active_version marker; an unset
// marker returns "" with no error.
func (s *Store) ActiveVersion(slug string) (string, error) {
	target := filepath.Join(s.base, slug, "active_version.txt")
	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", &PathError{Op: "read active version", Path: target, Err: err}
	}
	return strings.TrimSpace(string(data)), nil
}

// SetActiveVersion writes the document's active_version marker.
func (s *Store) SetActiveVersion(slug, version string) error {
	dir := filepath.Join(s.base, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PathError{Op: "set active version", Path: dir, Err: err}
	}
	target := filepath.Join(dir, "active_version.txt")
	if err := os.WriteFile(target, []byte(version), 0o644); err != nil {
		return &PathError{Op: "set active version", Path: target, Err: err}
	}
	return nil
}

// ListVersions lists the version directories of a document, sorted.
func (s *Store) ListVersions(slug string) ([]string, error) {
	dir := filepath.Join(s.base, slug, "versions")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &PathError{Op: "list versions", Path: dir, Err: err}
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// CopyVersion duplicates a version's whole tree, used when branching a
// draft from an active version.
func (s *Store) CopyVersion(slug, fromVersion, toVersion string) error {
	from := filepath.Join(s.base, slug, "versions", fromVersion)
	to := filepath.Join(s.base, slug, "versions", toVersion)
	if _, err := os.Stat(from); err != nil {
		return &PathError{Op: "copy version", Path: from, Err: ErrNotFound}
	}
	if _, err := os.Stat(to); err == nil {
		return &PathError{Op: "copy version", Path: to, Err: errors.New("target version already exists")}
	}
	if err := os.CopyFS(to, os.DirFS(from)); err != nil {
		return &PathError{Op: "copy version", Path: to, Err: err}
	}
	return nil
}

// DeleteVersion removes a version's whole tree. Deleting a version that
// does not exist is not an error.
func (s *Store) DeleteVersion(slug, version string) error {
	target := filepath.Join(s.base, slug, "versions", version)
	if err := os.RemoveAll(target); err != nil {
		return &PathError{Op: "delete version", Path: target, Err: err}
	}
	return nil
}

// DeleteDocument removes a document's entire tree.
func (s *Store) DeleteDocument(slug string) error {
	target := filepath.Join(s.base, slug)
	if err := os.RemoveAll(target); err != nil {
		return &PathError{Op: "delete document", Path: target, Err: err}
	}
	return nil
}

// VersionFS is the file tree of one document version. It implements the
// read side consumed by the wikilink package plus the write operations
// the pipeline and note service need.
type VersionFS struct {
	root string
}

// resolve joins a relative path onto the version root and rejects any
// result escaping it.
func (v *VersionFS) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", &PathError{Op: "resolve", Path: rel, Err: errEscapesRoot}
	}
	return filepath.Join(v.root, clean), nil
}

// Write stores a file at the relative path, creating parent directories.
func (v *VersionFS) Write(rel, content string) error {
	target, err := v.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &PathError{Op: "write", Path: rel, Err: err}
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return &PathError{Op: "write", Path: rel, Err: err}
	}
	return nil
}

// Read returns a file's content. A missing file wraps ErrNotFound.
func (v *VersionFS) Read(rel string) (string, error) {
	target, err := v.resolve(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &PathError{Op: "read", Path: rel, Err: ErrNotFound}
		}
		return "", &PathError{Op: "read", Path: rel, Err: err}
	}
	return string(data), nil
}

// Exists reports whether a file exists at the relative path.
func (v *VersionFS) Exists(rel string) bool {
	target, err := v.resolve(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(target)
	return err == nil && !info.IsDir()
}

// Delete removes a file. Deleting a missing file wraps ErrNotFound.
func (v *VersionFS) Delete(rel string) error {
	target, err := v.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return &PathError{Op: "delete", Path: rel, Err: ErrNotFound}
		}
		return &PathError{Op: "delete", Path: rel, Err: err}
	}
	return nil
}

// List walks the tree beneath prefix and returns relative paths whose
// base name matches the glob pattern, in lexicographic order. A missing
// prefix directory yields an empty result, not an error.
func (v *VersionFS) List(prefix, glob string) ([]string, error) {
	start, err := v.resolve(prefix)
	if prefix == "" || prefix == "." {
		start, err = v.root, nil
	}
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(start); os.IsNotExist(statErr) {
		return nil, nil
	}

	var matches []string
	walkErr := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, matchErr := filepath.Match(glob, d.Name())
		if matchErr != nil {
			return matchErr
		}
		if !ok {
			return nil
		}
		rel, relErr := filepath.Rel(v.root, p)
		if relErr != nil {
			return relErr
		}
		matches = append(matches, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		return nil, &PathError{Op: "list", Path: prefix, Err: walkErr}
	}
	sort.Strings(matches)
	return matches, nil
}

var (
	slugSpaces  = regexp.MustCompile(`[\s_]+`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a title into a filename-safe slug, capped at 50
// characters.
func Slugify(text string) string {
	text = strings.ToLower(text)
	text = slugSpaces.ReplaceAllString(text, "-")
	text = slugInvalid.ReplaceAllString(text, "")
	text = slugHyphens.ReplaceAllString(text, "-")
	text = strings.Trim(text, "-")
	if len(text) > 50 {
		text = strings.Trim(text[:50], "-")
	}
	return text
}
