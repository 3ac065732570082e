// Package store provides persistent storage for transfer functions and
// selections using SQLite.
package store

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/soma-tiles/tfserver/pkg/plot"
	"github.com/soma-tiles/tfserver/pkg/tfio"
	"github.com/soma-tiles/tfserver/pkg/transfunc"
)

// ErrNotFound is returned when a transfer function or selection does not
// exist.
var ErrNotFound = errors.New("store: not found")

// TransFuncInfo describes a stored transfer function.
type TransFuncInfo struct {
	Name      string    `json:"name"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SelectionInfo describes a stored selection.
type SelectionInfo struct {
	ID        string    `json:"id"`
	Entries   int       `json:"entries"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists transfer functions as zstd compressed tfi documents and
// selections as YAML documents.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	reg *plot.Registry
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewStore creates a new SQLite-based store. reg resolves the predicate
// types of stored selections.
func NewStore(dbPath string, reg *plot.Registry) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	s := &Store{db: db, reg: reg, enc: enc, dec: dec}
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transfuncs (
		name TEXT PRIMARY KEY,
		tfi BLOB NOT NULL,
		size INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS selections (
		id TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		entries INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_selections_created ON selections(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// PutTransFunc inserts or replaces the transfer function stored under name.
func (s *Store) PutTransFunc(name string, t *transfunc.KeyTable) error {
	var buf bytes.Buffer
	if err := tfio.EncodeTFI(&buf, t, 0); err != nil {
		return fmt.Errorf("failed to encode transfer function: %w", err)
	}
	blob := s.enc.EncodeAll(buf.Bytes(), nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO transfuncs (name, tfi, size, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET tfi = excluded.tfi, size = excluded.size, updated_at = excluded.updated_at
	`, name, blob, buf.Len(), time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetTransFunc loads the transfer function stored under name.
func (s *Store) GetTransFunc(name string) (*transfunc.KeyTable, error) {
	var blob []byte
	err := s.db.QueryRow("SELECT tfi FROM transfuncs WHERE name = ?", name).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: transfer function %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	doc, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %q: %w", name, err)
	}
	imp, err := tfio.DecodeTFI(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", name, err)
	}
	return imp.State, nil
}

// ListTransFuncs returns all stored transfer functions ordered by name.
func (s *Store) ListTransFuncs() ([]TransFuncInfo, error) {
	rows, err := s.db.Query("SELECT name, size, updated_at FROM transfuncs ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []TransFuncInfo
	for rows.Next() {
		var info TransFuncInfo
		var updatedAtStr string
		if err := rows.Scan(&info.Name, &info.Size, &updatedAtStr); err != nil {
			return nil, err
		}
		info.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAtStr)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteTransFunc deletes the transfer function stored under name.
func (s *Store) DeleteTransFunc(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM transfuncs WHERE name = ?", name)
	if err != nil {
		return err
	}
	return requireAffected(res, "transfer function", name)
}

// CreateSelection stores sel under a new random ID.
func (s *Store) CreateSelection(sel *plot.Selection) (string, error) {
	var buf bytes.Buffer
	if err := EncodeSelection(&buf, sel, s.reg); err != nil {
		return "", fmt.Errorf("failed to encode selection: %w", err)
	}

	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO selections (id, doc, entries, created_at)
		VALUES (?, ?, ?, ?)
	`, id, buf.String(), sel.Len(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetSelection loads the selection with the given ID. Entries whose
// predicate type is no longer known are dropped; the selection is returned
// together with a *plot.SkippedError in that case.
func (s *Store) GetSelection(id string) (*plot.Selection, error) {
	var doc string
	err := s.db.QueryRow("SELECT doc FROM selections WHERE id = ?", id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: selection %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return DecodeSelection(bytes.NewReader([]byte(doc)), s.reg)
}

// ListSelections returns all stored selections, newest first.
func (s *Store) ListSelections() ([]SelectionInfo, error) {
	rows, err := s.db.Query("SELECT id, entries, created_at FROM selections ORDER BY created_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []SelectionInfo
	for rows.Next() {
		var info SelectionInfo
		var createdAtStr string
		if err := rows.Scan(&info.ID, &info.Entries, &createdAtStr); err != nil {
			return nil, err
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteSelection deletes the selection with the given ID.
func (s *Store) DeleteSelection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM selections WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "selection", id)
}

func requireAffected(res sql.Result, kind, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %q", ErrNotFound, kind, key)
	}
	return nil
}
