package store

// Schema is the metadata schema. Content lives in files; these tables
// hold metadata and the full-text search index only.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    id             TEXT PRIMARY KEY,
    slug           TEXT NOT NULL UNIQUE,
    title          TEXT NOT NULL,
    active_version TEXT,
    storage_path   TEXT NOT NULL,
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS document_versions (
    id          TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    version     TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'draft'
                CHECK(status IN ('draft', 'active', 'archived')),
    upload_date TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE(document_id, version)
);

CREATE TABLE IF NOT EXISTS chapters (
    id                 TEXT PRIMARY KEY,
    version_id         TEXT NOT NULL REFERENCES document_versions(id) ON DELETE CASCADE,
    chapter_number     INTEGER NOT NULL,
    title              TEXT NOT NULL,
    file_path          TEXT NOT NULL,
    page_range         TEXT,
    word_count         INTEGER NOT NULL DEFAULT 0,
    has_manual_content INTEGER NOT NULL DEFAULT 0,
    has_linked_docs    INTEGER NOT NULL DEFAULT 0,
    created_at         TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at         TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS user_documents (
    id          TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    version     TEXT NOT NULL,
    file_path   TEXT NOT NULL,
    title       TEXT NOT NULL,
    doc_type    TEXT NOT NULL CHECK(doc_type IN ('note', 'reference')),
    created_by  TEXT,
    tags        TEXT NOT NULL DEFAULT '[]',
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_versions_document ON document_versions(document_id);
CREATE INDEX IF NOT EXISTS idx_versions_status ON document_versions(status);
CREATE INDEX IF NOT EXISTS idx_chapters_version ON chapters(version_id);
CREATE INDEX IF NOT EXISTS idx_chapters_number ON chapters(version_id, chapter_number);
CREATE INDEX IF NOT EXISTS idx_userdocs_document ON user_documents(document_id, version);
CREATE INDEX IF NOT EXISTS idx_userdocs_path ON user_documents(file_path);

-- Search indexes are maintained by the store, not by triggers: chapter
-- and note content lives in files, so the index text is supplied by the
-- caller on every content write.
CREATE VIRTUAL TABLE IF NOT EXISTS chapters_fts USING fts5(
    chapter_id UNINDEXED,
    title,
    content
);

CREATE VIRTUAL TABLE IF NOT EXISTS user_documents_fts USING fts5(
    user_doc_id UNINDEXED,
    title,
    content
);
`
