package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pagekeep/pagekeep/internal/store"
	"github.com/pagekeep/pagekeep/internal/userdocs"
	"github.com/pagekeep/pagekeep/internal/wikilink"
)

type notePayload struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	DocType       string   `json:"doc_type"`
	Tags          []string `json:"tags"`
	CreatedBy     string   `json:"created_by"`
	LinkToChapter int      `json:"link_to_chapter"`
}

// handleCreateNote creates a note or reference attached to the active
// version, optionally linking it into a chapter's Related Notes section.
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	doc, ver, err := s.activeVersion(slug)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil || ver == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	var p notePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if p.Title == "" {
		jsonError(w, "title is required", http.StatusBadRequest)
		return
	}
	if p.DocType == "" {
		p.DocType = userdocs.TypeNote
	}

	rec, err := s.notes.Create(userdocs.CreateParams{
		DocumentID:    doc.ID,
		Slug:          slug,
		Version:       ver.Version,
		VersionID:     ver.ID,
		DocType:       p.DocType,
		Title:         p.Title,
		Content:       p.Content,
		Tags:          p.Tags,
		CreatedBy:     p.CreatedBy,
		LinkToChapter: p.LinkToChapter,
	})
	if err != nil {
		switch {
		case errors.Is(err, userdocs.ErrInvalidType):
			jsonError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, userdocs.ErrExists):
			jsonError(w, err.Error(), http.StatusConflict)
		default:
			jsonError(w, "failed to create document: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// handleListNotes lists the active version's notes and references. The
// doc_type query parameter narrows to one kind.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	doc, ver, err := s.activeVersion(slug)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil || ver == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	recs, err := s.notes.List(doc.ID, ver.Version, r.URL.Query().Get("doc_type"))
	if err != nil {
		noteError(w, err)
		return
	}
	if recs == nil {
		recs = []store.UserDocRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":   ver.Version,
		"documents": recs,
	})
}

// handleGetNote reads a note or reference by its filename stem. The
// doc_type query parameter selects between the two, defaulting to note.
func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	name := chi.URLParam(r, "name")
	docType := queryDocType(r)

	doc, ver, err := s.activeVersion(slug)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil || ver == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	rec, content, err := s.notes.Read(doc.ID, slug, ver.Version, docType, name)
	if err != nil {
		noteError(w, err)
		return
	}
	links, err := s.notes.LinksOut(slug, ver.Version, rec.FilePath)
	if err != nil {
		s.log.Warn("link extraction failed", "path", rec.FilePath, "error", err)
	}
	if links == nil {
		links = []wikilink.Link{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"record":    rec,
		"content":   content,
		"links_out": links,
	})
}

// handleUpdateNote rewrites a note/reference's content and metadata.
func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	name := chi.URLParam(r, "name")

	doc, ver, err := s.activeVersion(slug)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil || ver == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	var p notePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if p.DocType == "" {
		p.DocType = userdocs.TypeNote
	}

	rec, err := s.notes.Update(doc.ID, slug, ver.Version, p.DocType, name, p.Content, p.Title, p.Tags)
	if err != nil {
		noteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteNote removes a note/reference file and its metadata.
func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	name := chi.URLParam(r, "name")
	docType := queryDocType(r)

	doc, ver, err := s.activeVersion(slug)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil || ver == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	if err := s.notes.Delete(doc.ID, slug, ver.Version, docType, name); err != nil {
		noteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": name})
}

func queryDocType(r *http.Request) string {
	if t := r.URL.Query().Get("doc_type"); t != "" {
		return t
	}
	return userdocs.TypeNote
}

func noteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userdocs.ErrInvalidType):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, userdocs.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}
