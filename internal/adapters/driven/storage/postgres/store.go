// Package postgres persists vector indexes in PostgreSQL using the pgvector
// extension, so several ragdesk processes can share one saved index.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// DefaultTable is the table holding chunk rows.
const DefaultTable = "rag_chunks"

// IndexStore saves and loads vector records in one table.
type IndexStore struct {
	pool  *pgxpool.Pool
	table string
}

// Option configures an IndexStore.
type Option func(*IndexStore)

// WithTable overrides the table name.
func WithTable(name string) Option {
	return func(s *IndexStore) {
		s.table = name
	}
}

// NewIndexStore connects, pings and creates the schema if needed.
func NewIndexStore(ctx context.Context, dsn string, opts ...Option) (*IndexStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", domain.ErrConfiguration)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse postgres dsn: %w", domain.ErrConfiguration, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &IndexStore{pool: pool, table: DefaultTable}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *IndexStore) createTables(ctx context.Context) error {
	table := pgx.Identifier{s.table}.Sanitize()
	query := `
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS ` + table + ` (
		seq          INTEGER PRIMARY KEY,
		chunk_id     TEXT    NOT NULL,
		document_id  TEXT    NOT NULL,
		source       TEXT    NOT NULL,
		origin       TEXT    NOT NULL,
		page         INTEGER NOT NULL,
		char_offset  INTEGER NOT NULL,
		position     INTEGER NOT NULL,
		content      TEXT    NOT NULL,
		embedding    vector  NOT NULL
	);`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Save replaces all rows in one transaction. Readers see either the old or
// the new rows.
func (s *IndexStore) Save(ctx context.Context, records []domain.VectorRecord) error {
	table := pgx.Identifier{s.table}.Sanitize()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}

	batch := &pgx.Batch{}
	insert := `INSERT INTO ` + table + ` (seq, chunk_id, document_id, source, origin, page, char_offset, position, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for i, r := range records {
		p := r.Chunk.Provenance
		batch.Queue(insert, i, r.Chunk.ID, p.DocumentID, p.Source, string(p.Origin),
			p.Page, p.Offset, r.Chunk.Position, r.Chunk.Content, pgvector.NewVector(r.Embedding))
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.Debug("postgres: saved %d records to %s", len(records), s.table)
	return nil
}

// Load reads all rows in insertion order. An empty table counts as nothing
// saved and returns domain.ErrNotFound.
func (s *IndexStore) Load(ctx context.Context) ([]domain.VectorRecord, error) {
	table := pgx.Identifier{s.table}.Sanitize()
	rows, err := s.pool.Query(ctx, `
		SELECT chunk_id, document_id, source, origin, page, char_offset, position, content, embedding
		FROM `+table+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var records []domain.VectorRecord
	for rows.Next() {
		var (
			r      domain.VectorRecord
			origin string
			vec    pgvector.Vector
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
			&vec,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		r.Chunk.Provenance.Origin = domain.Origin(origin)
		r.Embedding = vec.Slice()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: table %s is empty", domain.ErrNotFound, s.table)
	}
	return records, nil
}

// Close releases the connection pool.
func (s *IndexStore) Close() error {
	s.pool.Close()
	return nil
}
