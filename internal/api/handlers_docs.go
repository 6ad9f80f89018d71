package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pagekeep/pagekeep/internal/store"
)

// handleListDocuments lists all registered documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.meta.ListDocuments()
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleGetDocument returns one document with its versions and the
// active version's chapter listing.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	doc, err := s.meta.GetDocumentBySlug(slug)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	versions, err := s.files.ListVersions(slug)
	if err != nil {
		jsonError(w, "failed to list versions: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var chapters []store.ChapterRecord
	if doc.ActiveVersion != "" {
		ver, err := s.meta.GetVersion(doc.ID, doc.ActiveVersion)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if ver != nil {
			chapters, err = s.meta.ChaptersByVersion(ver.ID)
			if err != nil {
				jsonError(w, "failed to list chapters: "+err.Error(), http.StatusInternalServerError)
				return
			}
		}
	}
	if chapters == nil {
		chapters = []store.ChapterRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document": doc,
		"versions": versions,
		"chapters": chapters,
	})
}

// handleDeleteDocument removes a document's metadata and files.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	doc, err := s.meta.GetDocumentBySlug(slug)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	if err := s.meta.DeleteDocument(doc.ID); err != nil {
		jsonError(w, "failed to delete metadata: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.files.DeleteDocument(slug); err != nil {
		// Metadata is already gone; report the orphaned files.
		jsonError(w, fmt.Sprintf("metadata deleted but file cleanup failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": slug})
}

// activeVersion resolves a slug to its document row and active version
// row. A nil version with nil error means the document has no processed
// version yet.
func (s *Server) activeVersion(slug string) (*store.Document, *store.Version, error) {
	doc, err := s.meta.GetDocumentBySlug(slug)
	if err != nil || doc == nil {
		return doc, nil, err
	}
	if doc.ActiveVersion == "" {
		return doc, nil, nil
	}
	ver, err := s.meta.GetVersion(doc.ID, doc.ActiveVersion)
	if err != nil {
		return doc, nil, err
	}
	return doc, ver, nil
}
