package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pagekeep/pagekeep/internal/pipeline"
	"github.com/pagekeep/pagekeep/internal/storage"
)

// handleUpload accepts a structured export (converter JSON or markdown)
// and queues it for processing.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	fileType, err := fileTypeFor(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	slug := storage.Slugify(r.FormValue("slug"))
	if slug == "" {
		slug = storage.Slugify(title)
	}
	if slug == "" {
		jsonError(w, "slug or title is required", http.StatusBadRequest)
		return
	}
	version := r.FormValue("version")
	if version == "" {
		version = "v1"
	}

	doc, err := s.meta.UpsertDocument(slug, title, slug)
	if err != nil {
		jsonError(w, "failed to register document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	ver, err := s.meta.GetOrCreateVersion(doc.ID, version)
	if err != nil {
		jsonError(w, "failed to register version: "+err.Error(), http.StatusInternalServerError)
		return
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		VersionID:  ver.ID,
		Slug:       slug,
		Version:    version,
		Title:      title,
		FileType:   fileType,
		Status:     pipeline.StatusQueued,
		Phase:      "queued",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	job.SetFileData(data)

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"slug":     slug,
		"version":  version,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/documents/%s/status/%s", slug, job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":   snap.ID,
		"slug":     snap.Slug,
		"version":  snap.Version,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	})
}

// fileTypeFor maps an upload's extension to the processing path.
func fileTypeFor(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return pipeline.FileTypeJSON, nil
	case ".md", ".markdown":
		return pipeline.FileTypeMarkdown, nil
	case ".pdf":
		return pipeline.FileTypePDF, nil
	case ".docx":
		return pipeline.FileTypeDOCX, nil
	case ".html", ".htm":
		return pipeline.FileTypeHTML, nil
	case ".csv":
		return pipeline.FileTypeCSV, nil
	case ".txt":
		return pipeline.FileTypeText, nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
