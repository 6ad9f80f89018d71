package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pagekeep/pagekeep/internal/docmodel"
	"github.com/pagekeep/pagekeep/internal/render"
	"github.com/pagekeep/pagekeep/internal/segment"
	"github.com/pagekeep/pagekeep/internal/storage"
	"github.com/pagekeep/pagekeep/internal/store"
)

// Worker processes a single document job.
type Worker struct {
	files *storage.Store
	meta  *store.Store
	log   *slog.Logger
}

func NewWorker(files *storage.Store, meta *store.Store, log *slog.Logger) *Worker {
	return &Worker{files: files, meta: meta, log: log}
}

// Process runs the full pipeline for a job: load and segment the export,
// render chapters, then write files and metadata. The version stays in
// draft until storage succeeds; only then does it become active.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "slug", job.Slug, "version", job.Version)

	// Phase 1: Load + segment
	job.SetStatus(StatusSegmenting, "segmenting")
	data := job.FileData()
	job.ContentHash = ContentHashHex(data)

	var doc *docmodel.Document
	var err error
	switch job.FileType {
	case FileTypeMarkdown:
		doc, err = docmodel.LoadMarkdown(bytes.NewReader(data), job.Title)
	case FileTypePDF:
		doc, err = docmodel.LoadPDF(bytes.NewReader(data), job.Title)
	case FileTypeDOCX:
		doc, err = docmodel.LoadDOCX(bytes.NewReader(data), job.Title)
	case FileTypeHTML:
		doc, err = docmodel.LoadHTML(bytes.NewReader(data), job.Title)
	case FileTypeCSV:
		doc, err = docmodel.LoadCSV(bytes.NewReader(data), job.Title)
	case FileTypeText:
		doc, err = docmodel.LoadText(bytes.NewReader(data), job.Title)
	default:
		doc, err = docmodel.Load(bytes.NewReader(data))
	}
	if err != nil {
		w.fail(job, log, "segmenting", fmt.Errorf("load document: %w", err))
		return
	}

	boundaries := segment.Boundaries(doc.Body)
	for _, issue := range segment.Issues(boundaries) {
		log.Warn("segmentation issue", "issue", issue)
		job.AddWarning(issue)
	}
	job.SetTotalChapters(len(boundaries))
	log.Info("segmented document", "chapters", len(boundaries), "elements", len(doc.Body))

	if ctx.Err() != nil {
		w.fail(job, log, "segmenting", ctx.Err())
		return
	}

	// Phase 2: Render
	job.SetStatus(StatusRendering, "rendering")
	docName := job.Title
	if docName == "" {
		docName = doc.Name
	}
	chapters := make([]render.Chapter, 0, len(boundaries))
	for _, b := range boundaries {
		chapters = append(chapters, render.Assemble(b, doc.Body, docName, log))
	}
	chapters = render.CrossReference(chapters)

	if ctx.Err() != nil {
		w.fail(job, log, "rendering", ctx.Err())
		return
	}

	// Phase 3: Store. Reprocessing supersedes the version's chapters
	// wholesale, files first and rows after.
	job.SetStatus(StatusStoring, "storing")
	if err := w.files.EnsureDirs(job.Slug, job.Version); err != nil {
		w.fail(job, log, "storing", err)
		return
	}
	if err := w.meta.DeleteChaptersByVersion(job.VersionID); err != nil {
		w.fail(job, log, "storing", err)
		return
	}

	for _, ch := range chapters {
		rel, err := w.files.SaveChapter(job.Slug, job.Version, ch.Number, ch.Title, ch.Markdown)
		if err != nil {
			w.fail(job, log, "storing", fmt.Errorf("save chapter %d: %w", ch.Number, err))
			return
		}
		_, err = w.meta.InsertChapter(store.ChapterRecord{
			VersionID:     job.VersionID,
			ChapterNumber: ch.Number,
			Title:         ch.Title,
			FilePath:      rel,
			PageRange:     ch.PageRange(),
			WordCount:     len(strings.Fields(ch.Searchable)),
		}, ch.Title+"\n"+ch.Searchable)
		if err != nil {
			w.fail(job, log, "storing", fmt.Errorf("index chapter %d: %w", ch.Number, err))
			return
		}
		job.IncrChaptersStored()
	}

	metadata := map[string]any{
		"title":          docName,
		"version":        job.Version,
		"content_hash":   job.ContentHash,
		"total_chapters": len(chapters),
		"processed_at":   time.Now().UTC().Format(time.RFC3339),
	}
	if err := w.files.SaveMetadata(job.Slug, job.Version, metadata); err != nil {
		w.fail(job, log, "storing", fmt.Errorf("save metadata: %w", err))
		return
	}

	if err := w.files.SetActiveVersion(job.Slug, job.Version); err != nil {
		w.fail(job, log, "storing", fmt.Errorf("set active version: %w", err))
		return
	}
	if err := w.meta.SetActiveVersion(job.DocumentID, job.Version); err != nil {
		w.fail(job, log, "storing", err)
		return
	}
	if err := w.meta.SetVersionStatus(job.VersionID, "active"); err != nil {
		w.fail(job, log, "storing", err)
		return
	}

	log.Info("processing complete", "chapters", len(chapters))
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) fail(job *Job, log *slog.Logger, phase string, err error) {
	log.Error("processing failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}
