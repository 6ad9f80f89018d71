package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pagekeep/pagekeep/internal/chapterview"
	"github.com/pagekeep/pagekeep/internal/storage"
	"github.com/pagekeep/pagekeep/internal/store"
	"github.com/pagekeep/pagekeep/internal/toc"
	"github.com/pagekeep/pagekeep/internal/wikilink"
)

// handleTOC builds the nested table of contents for the active version:
// one root per chapter with the chapter's sub-heading outline beneath.
func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	doc, ver, err := s.activeVersion(slug)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if ver == nil {
		jsonError(w, "document has no processed version", http.StatusNotFound)
		return
	}

	chapters, err := s.meta.ChaptersByVersion(ver.ID)
	if err != nil {
		jsonError(w, "failed to list chapters: "+err.Error(), http.StatusInternalServerError)
		return
	}

	vfs := s.files.Version(slug, ver.Version)
	entries := make([]*toc.Entry, 0, len(chapters))
	for _, ch := range chapters {
		entry := &toc.Entry{
			ID:       ch.ID,
			Title:    ch.Title,
			Level:    1,
			Children: []*toc.Entry{},
		}
		content, err := vfs.Read(ch.FilePath)
		if err != nil {
			s.log.Warn("chapter read failed for toc", "path", ch.FilePath, "error", err)
		} else {
			entry.Children = toc.FromMarkdown(content, ch.ID)
		}
		entries = append(entries, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"version":   ver.Version,
		"toc":       entries,
		"max_depth": toc.MaxDepth(entries),
	})
}

// handleChapter renders one chapter of the active version with resolved
// links, backlinks, outline, and frontmatter.
func (s *Server) handleChapter(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		jsonError(w, "chapter number must be an integer", http.StatusBadRequest)
		return
	}

	doc, ver, err := s.activeVersion(slug)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil || ver == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	rec, err := s.meta.ChapterByNumber(ver.ID, number)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		jsonError(w, fmt.Sprintf("chapter %d not found", number), http.StatusNotFound)
		return
	}

	opts := chapterview.Options{
		IncludeBacklinks: r.URL.Query().Get("backlinks") != "false",
		ResolveLinks:     r.URL.Query().Get("resolve") != "false",
	}
	view, err := s.renderer.Render(s.files.Version(slug, ver.Version), rec.FilePath, opts)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			jsonError(w, "chapter file missing", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"chapter": rec,
		"view":    view,
	})
}

// handleBacklinks lists the files linking to a target. The target may be
// a relative file path or a bare link target, which is resolved first.
func (s *Server) handleBacklinks(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	target := r.URL.Query().Get("target")
	if target == "" {
		jsonError(w, "target query parameter is required", http.StatusBadRequest)
		return
	}

	doc, ver, err := s.activeVersion(slug)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil || ver == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	vfs := s.files.Version(slug, ver.Version)
	if !strings.Contains(target, "/") {
		if resolved, ok := wikilink.Resolve(vfs, target); ok {
			target = resolved
		}
	}

	backlinks, err := wikilink.Backlinks(vfs, target, s.log)
	if err != nil {
		jsonError(w, "failed to collect backlinks: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"target":    target,
		"backlinks": backlinks,
	})
}

// handleGraph returns the bidirectional link graph for the active
// version.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
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

	graph, err := wikilink.BuildGraph(s.files.Version(slug, ver.Version), s.log)
	if err != nil {
		jsonError(w, "failed to build graph: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version": ver.Version,
		"graph":   graph,
	})
}

// handleSearch runs a ranked full-text query over the active version's
// chapters.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	query := r.URL.Query().Get("q")
	if query == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}

	doc, ver, err := s.activeVersion(slug)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil || ver == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	results, err := s.meta.SearchChapters(ver.ID, query, limit, offset)
	if err != nil {
		jsonError(w, "search failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []store.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}
