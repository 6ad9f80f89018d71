// Package userdocs manages user-authored notes and references that sit
// alongside a document version's rendered chapters. Content lives in the
// file store under notes/ or references/; metadata and the search index
// live in the relational store.
package userdocs

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/pagekeep/pagekeep/internal/storage"
	"github.com/pagekeep/pagekeep/internal/store"
	"github.com/pagekeep/pagekeep/internal/wikilink"
)

const (
	TypeNote      = "note"
	TypeReference = "reference"
)

const relatedHeading = "## Related Notes"

var (
	ErrInvalidType = errors.New("doc type must be note or reference")
	ErrNotFound    = errors.New("user document not found")
	ErrExists      = errors.New("user document already exists")
)

// Service couples the file store and metadata store for note/reference
// operations.
type Service struct {
	files *storage.Store
	meta  *store.Store
	log   *slog.Logger
}

func NewService(files *storage.Store, meta *store.Store, log *slog.Logger) *Service {
	return &Service{files: files, meta: meta, log: log}
}

// CreateParams describes a new note or reference.
type CreateParams struct {
	DocumentID string
	Slug       string
	Version    string
	DocType    string
	Title      string
	Content    string
	Tags       []string
	CreatedBy  string

	// LinkToChapter, when > 0, appends a wikilink to the new document
	// into that chapter's Related Notes section.
	LinkToChapter int
	VersionID     string
}

// Create writes the document file and records it in the metadata store.
func (s *Service) Create(p CreateParams) (*store.UserDocRecord, error) {
	dir, err := typeDir(p.DocType)
	if err != nil {
		return nil, err
	}
	stem := storage.Slugify(p.Title)
	if stem == "" {
		return nil, fmt.Errorf("title %q produces an empty filename", p.Title)
	}
	rel := path.Join(dir, stem+".md")

	vfs := s.files.Version(p.Slug, p.Version)
	if vfs.Exists(rel) {
		return nil, fmt.Errorf("%s %s: %w", p.DocType, stem, ErrExists)
	}
	if err := vfs.Write(rel, p.Content); err != nil {
		return nil, fmt.Errorf("write %s: %w", p.DocType, err)
	}

	rec, err := s.meta.InsertUserDoc(store.UserDocRecord{
		DocumentID: p.DocumentID,
		Version:    p.Version,
		FilePath:   rel,
		Title:      p.Title,
		DocType:    p.DocType,
		CreatedBy:  p.CreatedBy,
		Tags:       p.Tags,
	}, p.Content)
	if err != nil {
		return nil, err
	}

	if p.LinkToChapter > 0 {
		if err := s.linkChapter(p, vfs, stem); err != nil {
			s.log.Warn("chapter link failed", "chapter", p.LinkToChapter, "target", stem, "error", err)
		}
	}
	return rec, nil
}

// linkChapter appends a wikilink to the chapter's Related Notes section,
// creating the section when the chapter has none, and flips the
// chapter's linked-docs flag.
func (s *Service) linkChapter(p CreateParams, vfs *storage.VersionFS, stem string) error {
	rec, err := s.meta.ChapterByNumber(p.VersionID, p.LinkToChapter)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("chapter %d not found", p.LinkToChapter)
	}

	content, err := vfs.Read(rec.FilePath)
	if err != nil {
		return fmt.Errorf("read chapter: %w", err)
	}
	link := "- [[" + stem + "]]"
	if idx := strings.Index(content, relatedHeading); idx >= 0 {
		// Insert at the end of the existing section, before the next
		// heading if one follows.
		section := content[idx:]
		insert := len(content)
		if next := strings.Index(section[len(relatedHeading):], "\n## "); next >= 0 {
			insert = idx + len(relatedHeading) + next
		}
		content = strings.TrimRight(content[:insert], "\n") + "\n" + link + "\n" + content[insert:]
	} else {
		content = strings.TrimRight(content, "\n") + "\n\n" + relatedHeading + "\n\n" + link + "\n"
	}
	if err := vfs.Write(rec.FilePath, content); err != nil {
		return fmt.Errorf("write chapter: %w", err)
	}
	return s.meta.SetChapterFlags(rec.ID, rec.HasManualContent, true)
}

// Read returns the metadata row and file content for a note/reference
// identified by its filename stem.
func (s *Service) Read(documentID, slug, version, docType, stem string) (*store.UserDocRecord, string, error) {
	dir, err := typeDir(docType)
	if err != nil {
		return nil, "", err
	}
	rel := path.Join(dir, stem+".md")

	rec, err := s.meta.UserDocByPath(documentID, version, rel)
	if err != nil {
		return nil, "", err
	}
	if rec == nil {
		return nil, "", fmt.Errorf("%s %s: %w", docType, stem, ErrNotFound)
	}
	content, err := s.files.Version(slug, version).Read(rel)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", docType, err)
	}
	return rec, content, nil
}

// Update rewrites a note/reference's content and optionally its title
// and tags, then reindexes it.
func (s *Service) Update(documentID, slug, version, docType, stem, content, title string, tags []string) (*store.UserDocRecord, error) {
	rec, _, err := s.Read(documentID, slug, version, docType, stem)
	if err != nil {
		return nil, err
	}
	if err := s.files.Version(slug, version).Write(rec.FilePath, content); err != nil {
		return nil, fmt.Errorf("write %s: %w", docType, err)
	}
	if title == "" {
		title = rec.Title
	}
	if tags == nil {
		tags = rec.Tags
	}
	if err := s.meta.UpdateUserDoc(rec.ID, title, tags, content); err != nil {
		return nil, err
	}
	rec.Title = title
	rec.Tags = tags
	return rec, nil
}

// Delete removes a note/reference's file and metadata row. Wikilinks
// pointing at it are left in place and render as broken links.
func (s *Service) Delete(documentID, slug, version, docType, stem string) error {
	rec, _, err := s.Read(documentID, slug, version, docType, stem)
	if err != nil {
		return err
	}
	if err := s.files.Version(slug, version).Delete(rec.FilePath); err != nil {
		return fmt.Errorf("delete %s: %w", docType, err)
	}
	return s.meta.DeleteUserDoc(rec.ID)
}

// List returns a version's notes/references, optionally filtered by
// doc type ("" for both).
func (s *Service) List(documentID, version, docType string) ([]store.UserDocRecord, error) {
	if docType != "" {
		if _, err := typeDir(docType); err != nil {
			return nil, err
		}
	}
	return s.meta.UserDocsByVersion(documentID, version, docType)
}

// LinksOut parses a note/reference's content for wikilinks.
func (s *Service) LinksOut(slug, version, rel string) ([]wikilink.Link, error) {
	content, err := s.files.Version(slug, version).Read(rel)
	if err != nil {
		return nil, err
	}
	return wikilink.Parse(content), nil
}

func typeDir(docType string) (string, error) {
	switch docType {
	case TypeNote:
		return "notes", nil
	case TypeReference:
		return "references", nil
	default:
		return "", fmt.Errorf("%q: %w", docType, ErrInvalidType)
	}
}
