// Package store is the relational metadata and search-index store.
// Chapter and note content lives in the file store; every row here
// carries a file_path pointing at it, plus derived fields and an FTS5
// index recomputed on every content write.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open metadata db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate metadata db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Document is one document's metadata row.
type Document struct {
	ID            string `json:"id"`
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	ActiveVersion string `json:"active_version,omitempty"`
	StoragePath   string `json:"storage_path"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// Version is one document version's metadata row.
type Version struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Version    string `json:"version"`
	Status     string `json:"status"`
	UploadDate string `json:"upload_date"`
}

// ChapterRecord is one chapter's metadata row. It owns no content;
// FilePath is the sole link to the file store.
type ChapterRecord struct {
	ID               string `json:"id"`
	VersionID        string `json:"version_id"`
	ChapterNumber    int    `json:"chapter_number"`
	Title            string `json:"title"`
	FilePath         string `json:"file_path"`
	PageRange        string `json:"page_range,omitempty"`
	WordCount        int    `json:"word_count"`
	HasManualContent bool   `json:"has_manual_content"`
	HasLinkedDocs    bool   `json:"has_linked_docs"`
}

// UserDocRecord is one user-authored note or reference row.
type UserDocRecord struct {
	ID         string   `json:"id"`
	DocumentID string   `json:"document_id"`
	Version    string   `json:"version"`
	FilePath   string   `json:"file_path"`
	Title      string   `json:"title"`
	DocType    string   `json:"doc_type"`
	CreatedBy  string   `json:"created_by,omitempty"`
	Tags       []string `json:"tags"`
}

// UpsertDocument creates the document row for a slug or returns the
// existing one.
func (s *Store) UpsertDocument(slug, title, storagePath string) (*Document, error) {
	existing, err := s.GetDocumentBySlug(slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	id := uuid.New().String()
	_, err = s.db.Exec(
		`INSERT INTO documents (id, slug, title, storage_path) VALUES (?, ?, ?, ?)`,
		id, slug, title, storagePath,
	)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return s.GetDocumentBySlug(slug)
}

// GetDocumentBySlug returns the document row, or nil when absent.
func (s *Store) GetDocumentBySlug(slug string) (*Document, error) {
	row := s.db.QueryRow(
		`SELECT id, slug, title, COALESCE(active_version, ''), storage_path, created_at, updated_at
		 FROM documents WHERE slug = ?`, slug)
	return scanDocument(row)
}

// ListDocuments returns every document ordered by slug.
func (s *Store) ListDocuments() ([]Document, error) {
	rows, err := s.db.Query(
		`SELECT id, slug, title, COALESCE(active_version, ''), storage_path, created_at, updated_at
		 FROM documents ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Slug, &d.Title, &d.ActiveVersion, &d.StoragePath, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// SetActiveVersion records the document's active version.
func (s *Store) SetActiveVersion(documentID, version string) error {
	_, err := s.db.Exec(
		`UPDATE documents SET active_version = ?, updated_at = datetime('now') WHERE id = ?`,
		version, documentID)
	if err != nil {
		return fmt.Errorf("set active version: %w", err)
	}
	return nil
}

// DeleteDocument removes the document row; versions, chapters, and user
// documents cascade. Search-index rows are cleaned up explicitly since
// FTS tables carry no foreign keys.
func (s *Store) DeleteDocument(documentID string) error {
	_, err := s.db.Exec(
		`DELETE FROM chapters_fts WHERE chapter_id IN (
		    SELECT c.id FROM chapters c
		    JOIN document_versions v ON v.id = c.version_id
		    WHERE v.document_id = ?)`, documentID)
	if err != nil {
		return fmt.Errorf("delete chapter index: %w", err)
	}
	_, err = s.db.Exec(
		`DELETE FROM user_documents_fts WHERE user_doc_id IN (
		    SELECT id FROM user_documents WHERE document_id = ?)`, documentID)
	if err != nil {
		return fmt.Errorf("delete user doc index: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// GetOrCreateVersion returns the version row for (document, version),
// creating it in draft status when absent.
func (s *Store) GetOrCreateVersion(documentID, version string) (*Version, error) {
	v, err := s.GetVersion(documentID, version)
	if err != nil {
		return nil, err
	}
	if v != nil {
		return v, nil
	}

	id := uuid.New().String()
	_, err = s.db.Exec(
		`INSERT INTO document_versions (id, document_id, version, status) VALUES (?, ?, ?, 'draft')`,
		id, documentID, version)
	if err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}
	return s.GetVersion(documentID, version)
}

// GetVersion returns a version row, or nil when absent.
func (s *Store) GetVersion(documentID, version string) (*Version, error) {
	row := s.db.QueryRow(
		`SELECT id, document_id, version, status, upload_date
		 FROM document_versions WHERE document_id = ? AND version = ?`,
		documentID, version)
	var v Version
	err := row.Scan(&v.ID, &v.DocumentID, &v.Version, &v.Status, &v.UploadDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	return &v, nil
}

// SetVersionStatus moves a version between draft, active, and archived.
func (s *Store) SetVersionStatus(versionID, status string) error {
	_, err := s.db.Exec(
		`UPDATE document_versions SET status = ? WHERE id = ?`, status, versionID)
	if err != nil {
		return fmt.Errorf("set version status: %w", err)
	}
	return nil
}

// DeleteChaptersByVersion clears a version's chapter rows and their
// search-index entries; reprocessing supersedes chapters wholesale.
func (s *Store) DeleteChaptersByVersion(versionID string) error {
	_, err := s.db.Exec(
		`DELETE FROM chapters_fts WHERE chapter_id IN (SELECT id FROM chapters WHERE version_id = ?)`,
		versionID)
	if err != nil {
		return fmt.Errorf("delete chapter index: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM chapters WHERE version_id = ?`, versionID); err != nil {
		return fmt.Errorf("delete chapters: %w", err)
	}
	return nil
}

// InsertChapter creates a chapter row and its search-index entry.
// searchText is the stripped chapter text; the file must already exist
// at FilePath before this is called.
func (s *Store) InsertChapter(rec ChapterRecord, searchText string) (*ChapterRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := s.db.Exec(
		`INSERT INTO chapters (id, version_id, chapter_number, title, file_path, page_range, word_count, has_manual_content, has_linked_docs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.VersionID, rec.ChapterNumber, rec.Title, rec.FilePath, rec.PageRange,
		rec.WordCount, boolInt(rec.HasManualContent), boolInt(rec.HasLinkedDocs))
	if err != nil {
		return nil, fmt.Errorf("insert chapter: %w", err)
	}
	if err := s.reindexChapter(rec.ID, rec.Title, searchText); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ChaptersByVersion returns a version's chapters in chapter order.
func (s *Store) ChaptersByVersion(versionID string) ([]ChapterRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, version_id, chapter_number, title, file_path, COALESCE(page_range, ''), word_count, has_manual_content, has_linked_docs
		 FROM chapters WHERE version_id = ? ORDER BY chapter_number`, versionID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []ChapterRecord
	for rows.Next() {
		rec, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, *rec)
	}
	return chapters, rows.Err()
}

// ChapterByNumber returns one chapter of a version, or nil when absent.
func (s *Store) ChapterByNumber(versionID string, number int) (*ChapterRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, version_id, chapter_number, title, file_path, COALESCE(page_range, ''), word_count, has_manual_content, has_linked_docs
		 FROM chapters WHERE version_id = ? AND chapter_number = ?`, versionID, number)
	rec, err := scanChapter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// ChapterByPath returns the chapter row for a file path, or nil.
func (s *Store) ChapterByPath(versionID, filePath string) (*ChapterRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, version_id, chapter_number, title, file_path, COALESCE(page_range, ''), word_count, has_manual_content, has_linked_docs
		 FROM chapters WHERE version_id = ? AND file_path = ?`, versionID, filePath)
	rec, err := scanChapter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// SetChapterFlags updates the manual-content and linked-docs markers.
func (s *Store) SetChapterFlags(chapterID string, hasManualContent, hasLinkedDocs bool) error {
	_, err := s.db.Exec(
		`UPDATE chapters SET has_manual_content = ?, has_linked_docs = ?, updated_at = datetime('now') WHERE id = ?`,
		boolInt(hasManualContent), boolInt(hasLinkedDocs), chapterID)
	if err != nil {
		return fmt.Errorf("set chapter flags: %w", err)
	}
	return nil
}

// ReindexChapter recomputes a chapter's search-index entry after a
// content change.
func (s *Store) ReindexChapter(chapterID, title, searchText string) error {
	return s.reindexChapter(chapterID, title, searchText)
}

func (s *Store) reindexChapter(chapterID, title, searchText string) error {
	if _, err := s.db.Exec(`DELETE FROM chapters_fts WHERE chapter_id = ?`, chapterID); err != nil {
		return fmt.Errorf("clear chapter index: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO chapters_fts (chapter_id, title, content) VALUES (?, ?, ?)`,
		chapterID, title, searchText); err != nil {
		return fmt.Errorf("index chapter: %w", err)
	}
	return nil
}

// SearchResult is one ranked full-text hit.
type SearchResult struct {
	ChapterID     string  `json:"chapter_id"`
	ChapterNumber int     `json:"chapter_number"`
	Title         string  `json:"title"`
	Snippet       string  `json:"snippet"`
	PageRange     string  `json:"page_range,omitempty"`
	Rank          float64 `json:"rank"`
}

// SearchChapters runs a ranked full-text query over a version's chapter
// index.
func (s *Store) SearchChapters(versionID, query string, limit, offset int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT c.id, c.chapter_number, c.title,
		        snippet(chapters_fts, 2, '<b>', '</b>', '...', 24),
		        COALESCE(c.page_range, ''),
		        bm25(chapters_fts)
		 FROM chapters_fts
		 JOIN chapters c ON c.id = chapters_fts.chapter_id
		 WHERE chapters_fts MATCH ? AND c.version_id = ?
		 ORDER BY bm25(chapters_fts), c.chapter_number
		 LIMIT ? OFFSET ?`,
		query, versionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search chapters: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ChapterID, &r.ChapterNumber, &r.Title, &r.Snippet, &r.PageRange, &r.Rank); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// InsertUserDoc creates a note/reference row and its search-index entry.
func (s *Store) InsertUserDoc(rec UserDocRecord, searchText string) (*UserDocRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	tags, err := json.Marshal(tagsOrEmpty(rec.Tags))
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO user_documents (id, document_id, version, file_path, title, doc_type, created_by, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.DocumentID, rec.Version, rec.FilePath, rec.Title, rec.DocType, rec.CreatedBy, string(tags))
	if err != nil {
		return nil, fmt.Errorf("insert user document: %w", err)
	}
	if err := s.reindexUserDoc(rec.ID, rec.Title, searchText); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateUserDoc rewrites a note/reference row's title and tags and
// recomputes its search-index entry.
func (s *Store) UpdateUserDoc(id, title string, tags []string, searchText string) error {
	encoded, err := json.Marshal(tagsOrEmpty(tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE user_documents SET title = ?, tags = ?, updated_at = datetime('now') WHERE id = ?`,
		title, string(encoded), id)
	if err != nil {
		return fmt.Errorf("update user document: %w", err)
	}
	return s.reindexUserDoc(id, title, searchText)
}

// DeleteUserDoc removes a note/reference row and its index entry.
func (s *Store) DeleteUserDoc(id string) error {
	if _, err := s.db.Exec(`DELETE FROM user_documents_fts WHERE user_doc_id = ?`, id); err != nil {
		return fmt.Errorf("clear user doc index: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM user_documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete user document: %w", err)
	}
	return nil
}

// UserDocsByVersion lists a version's notes/references, optionally
// filtered by doc type.
func (s *Store) UserDocsByVersion(documentID, version, docType string) ([]UserDocRecord, error) {
	q := `SELECT id, document_id, version, file_path, title, doc_type, COALESCE(created_by, ''), tags
	      FROM user_documents WHERE document_id = ? AND version = ?`
	args := []any{documentID, version}
	if docType != "" {
		q += ` AND doc_type = ?`
		args = append(args, docType)
	}
	q += ` ORDER BY title`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list user documents: %w", err)
	}
	defer rows.Close()

	var docs []UserDocRecord
	for rows.Next() {
		rec, err := scanUserDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *rec)
	}
	return docs, rows.Err()
}

// UserDocByPath returns the note/reference row for a file path, or nil.
func (s *Store) UserDocByPath(documentID, version, filePath string) (*UserDocRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, document_id, version, file_path, title, doc_type, COALESCE(created_by, ''), tags
		 FROM user_documents WHERE document_id = ? AND version = ? AND file_path = ?`,
		documentID, version, filePath)
	rec, err := scanUserDoc(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (s *Store) reindexUserDoc(id, title, searchText string) error {
	if _, err := s.db.Exec(`DELETE FROM user_documents_fts WHERE user_doc_id = ?`, id); err != nil {
		return fmt.Errorf("clear user doc index: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO user_documents_fts (user_doc_id, title, content) VALUES (?, ?, ?)`,
		id, title, searchText); err != nil {
		return fmt.Errorf("index user document: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.Slug, &d.Title, &d.ActiveVersion, &d.StoragePath, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &d, nil
}

func scanChapter(row rowScanner) (*ChapterRecord, error) {
	var rec ChapterRecord
	var manual, linked int
	err := row.Scan(&rec.ID, &rec.VersionID, &rec.ChapterNumber, &rec.Title, &rec.FilePath,
		&rec.PageRange, &rec.WordCount, &manual, &linked)
	if err != nil {
		return nil, err
	}
	rec.HasManualContent = manual != 0
	rec.HasLinkedDocs = linked != 0
	return &rec, nil
}

func scanUserDoc(row rowScanner) (*UserDocRecord, error) {
	var rec UserDocRecord
	var tags string
	err := row.Scan(&rec.ID, &rec.DocumentID, &rec.Version, &rec.FilePath, &rec.Title,
		&rec.DocType, &rec.CreatedBy, &tags)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		rec.Tags = nil
	}
	return &rec, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
