package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSource is a local document store with the same query contract as
// the remote one. It is seeded with `folio import`.
type SQLiteSource struct {
	db       *sql.DB
	pageSize int
	timeout  time.Duration
}

// NewSQLiteSource opens (or creates) the SQLite database at path, ensures the
// data directory exists, and creates the documents table.
func NewSQLiteSource(path string) (*SQLiteSource, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the importer write while the server reads; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &SQLiteSource{db: db, pageSize: DefaultPageSize, timeout: DefaultTimeout}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL DEFAULT '',
    published_at TEXT NOT NULL DEFAULT '',
    body TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_slug ON documents(slug);
CREATE INDEX IF NOT EXISTS idx_documents_published_at ON documents(published_at);
`)
	return err
}

// FetchAll implements Source.
func (s *SQLiteSource) FetchAll(ctx context.Context) ([]RawDocument, error) {
	const op = "fetch all"
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT body FROM documents ORDER BY published_at DESC, rowid ASC LIMIT ?`, s.pageSize)
	if err != nil {
		return nil, s.classify(ctx, op, err)
	}
	defer rows.Close()

	var docs []RawDocument
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, s.classify(ctx, op, err)
		}
		var doc RawDocument
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, &DecodeError{Op: op, Err: err}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify(ctx, op, err)
	}
	return docs, nil
}

// FetchBySlug implements Source.
func (s *SQLiteSource) FetchBySlug(ctx context.Context, slug string) (*RawDocument, error) {
	const op = "fetch by slug"
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE slug = ? LIMIT 1`, slug).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, s.classify(ctx, op, err)
	}
	var doc RawDocument
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return &doc, nil
}

// SaveDocument upserts doc keyed by its _id. The slug and publishedAt
// columns are copied out of the body for querying.
func (s *SQLiteSource) SaveDocument(ctx context.Context, doc RawDocument) error {
	id := doc.ID()
	if id == "" {
		return fmt.Errorf("content: document has no _id")
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	publishedAt, _ := doc["publishedAt"].(string)
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO documents (id, slug, published_at, body) VALUES (?, ?, ?, ?)`,
		id, doc.Slug(), publishedAt, string(body))
	return err
}

// DeleteDocument removes the documents whose id or slug is ref and
// returns how many were removed.
func (s *SQLiteSource) DeleteDocument(ctx context.Context, ref string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ? OR slug = ?`, ref, ref)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of stored documents.
func (s *SQLiteSource) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

func (s *SQLiteSource) classify(ctx context.Context, op string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return &TimeoutError{Op: op, After: s.timeout}
	}
	return &FetchError{Op: op, Err: err}
}
