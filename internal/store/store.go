// Package store persists rendered diagrams in SQLite, keyed by the content
// hash of their source text. SVG markup is stored xz-compressed.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/MarkdownViewer/core/errors"
	"github.com/FocuswithJustin/MarkdownViewer/core/render"
	"github.com/FocuswithJustin/MarkdownViewer/core/sqlite"
)

// Injectable functions for testing.
var (
	xzNewWriter = xz.NewWriter
	xzNewReader = xz.NewReader
)

// Record is a stored render.
type Record struct {
	Hash       string        `json:"hash"`
	Structures int           `json:"structures"`
	Status     render.Status `json:"status"`
	SVG        string        `json:"svg,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Summary describes a stored render without its markup.
type Summary struct {
	Hash       string        `json:"hash"`
	Structures int           `json:"structures"`
	Status     render.Status `json:"status"`
	// Size is the compressed size of the stored SVG in bytes.
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed render store. It is safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	now func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS renders (
	hash TEXT PRIMARY KEY,
	structures INTEGER NOT NULL,
	status TEXT NOT NULL,
	svg_xz BLOB NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_renders_created_at ON renders(created_at DESC);
`

// timeLayout is fixed width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Open opens or creates the store at path. The parent directory is created
// if needed; sqlite.Memory opens a throwaway in-memory store.
func Open(path string) (*Store, error) {
	if path != sqlite.Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.NewIO("mkdir", filepath.Dir(path), err)
		}
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores res under hash, replacing an earlier record.
func (s *Store) Put(ctx context.Context, hash string, res render.Result) error {
	if hash == "" {
		return errors.NewValidation("hash", "must not be empty")
	}

	blob, err := compress([]byte(res.SVG))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO renders (hash, structures, status, svg_xz, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(hash) DO UPDATE SET
		structures = excluded.structures,
		status = excluded.status,
		svg_xz = excluded.svg_xz,
		created_at = excluded.created_at
	`, hash, res.Structures, string(res.Status), blob, s.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save render: %w", err)
	}
	return nil
}

// Get returns the record stored under hash.
func (s *Store) Get(ctx context.Context, hash string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec       Record
		status    string
		blob      []byte
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT hash, structures, status, svg_xz, created_at
	FROM renders
	WHERE hash = ?
	`, hash).Scan(&rec.Hash, &rec.Structures, &status, &blob, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("render", hash)
		}
		return nil, fmt.Errorf("load render: %w", err)
	}

	svg, err := decompress(blob)
	if err != nil {
		return nil, err
	}
	rec.SVG = string(svg)
	rec.Status = render.Status(status)
	if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &rec, nil
}

// List returns up to limit summaries, newest first. limit <= 0 lists all.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT hash, structures, status, length(svg_xz), created_at
	FROM renders
	ORDER BY created_at DESC, hash
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var (
			sum       Summary
			status    string
			createdAt string
		)
		if err := rows.Scan(&sum.Hash, &sum.Structures, &status, &sum.Size, &createdAt); err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		sum.Status = render.Status(status)
		if sum.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	return summaries, nil
}

// Delete removes the record stored under hash.
func (s *Store) Delete(ctx context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM renders WHERE hash = ?`, hash)
	if err != nil {
		return fmt.Errorf("delete render: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete render: %w", err)
	}
	if n == 0 {
		return errors.NewNotFound("render", hash)
	}
	return nil
}

// Count returns the number of stored renders.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM renders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count renders: %w", err)
	}
	return n, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xzNewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("xz compress: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("xz compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("xz compress: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(blob []byte) ([]byte, error) {
	r, err := xzNewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("xz decompress: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("xz decompress: %w", err)
	}
	return data, nil
}
