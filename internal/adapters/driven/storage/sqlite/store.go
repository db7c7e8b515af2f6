package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexFile is the database file name inside the index directory.
const IndexFile = "index.db"

// IndexStore saves and loads vector records.
type IndexStore struct {
	mu   sync.Mutex
	dir  string
	path string
}

// NewIndexStore creates a store rooted at dir.
// If dir is empty, defaults to ~/.ragdesk/index.
func NewIndexStore(dir string) (*IndexStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".ragdesk", "index")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	return &IndexStore{
		dir:  dir,
		path: filepath.Join(dir, IndexFile),
	}, nil
}

// Path returns the database file path.
func (s *IndexStore) Path() string {
	return s.path
}

// Save writes records to a fresh database and renames it over the current one.
func (s *IndexStore) Save(ctx context.Context, records []domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "index-*.db.tmp")
	if err != nil {
		return fmt.Errorf("creating temp index: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := writeIndex(ctx, tmpPath, records); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replacing index: %w", err)
	}
	logger.Debug("sqlite: saved %d records to %s", len(records), s.path)
	return nil
}

// Load reads all records in insertion order.
func (s *IndexStore) Load(ctx context.Context) ([]domain.VectorRecord, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no saved index at %s", domain.ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("stat index: %w", err)
	}

	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT id, document_id, source, origin, page, char_offset, position, content, embedding
		FROM chunks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var records []domain.VectorRecord
	for rows.Next() {
		var (
			r      domain.VectorRecord
			origin string
			blob   []byte
		)
		err := rows.Scan(
			&r.Chunk.ID,
			&r.Chunk.Provenance.DocumentID,
			&r.Chunk.Provenance.Source,
			&origin,
			&r.Chunk.Provenance.Page,
			&r.Chunk.Provenance.Offset,
			&r.Chunk.Position,
			&r.Chunk.Content,
			&blob,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if len(blob)%4 != 0 {
			return nil, fmt.Errorf("%w: chunk %s has a truncated embedding", domain.ErrParse, r.Chunk.ID)
		}
		r.Chunk.Provenance.Origin = domain.Origin(origin)
		r.Embedding = bytesToFloat32Slice(blob)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	return records, nil
}

// SavedAt returns when the current index was written.
func (s *IndexStore) SavedAt(ctx context.Context) (time.Time, error) {
	if _, err := os.Stat(s.path); err != nil {
		return time.Time{}, fmt.Errorf("%w: no saved index at %s", domain.ErrNotFound, s.path)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("opening index: %w", err)
	}
	defer db.Close()

	var value string
	err = db.QueryRowContext(ctx, "SELECT value FROM index_meta WHERE key = 'saved_at'").Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, domain.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("reading saved_at: %w", err)
	}
	return time.Parse(time.RFC3339Nano, value)
}

// Close releases resources. Databases are opened per call.
func (s *IndexStore) Close() error {
	return nil
}

func writeIndex(ctx context.Context, path string, records []domain.VectorRecord) error {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("opening temp index: %w", err)
	}
	defer db.Close()

	if err := migrate(db, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (seq, id, document_id, source, origin, page, char_offset, position, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		p := r.Chunk.Provenance
		_, err := stmt.ExecContext(ctx, i, r.Chunk.ID, p.DocumentID, p.Source, string(p.Origin),
			p.Page, p.Offset, r.Chunk.Position, r.Chunk.Content, float32SliceToBytes(r.Embedding))
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", r.Chunk.ID, err)
		}
	}

	meta := map[string]string{
		"saved_at": time.Now().UTC().Format(time.RFC3339Nano),
		"records":  strconv.Itoa(len(records)),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO index_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("writing meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func migrate(db *sql.DB, fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_index.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
