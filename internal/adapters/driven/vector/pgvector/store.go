// Package pgvector provides a PostgreSQL vector storage backend using the
// pgvector extension. Ranking happens in the database with the <=> cosine
// distance operator.
package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/docrag/internal/adapters/driven/vector"
	"github.com/custodia-labs/docrag/internal/adapters/driven/vector/pgvector/migrations"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure types implement the interfaces.
var (
	_ driven.VectorStorageBackend = (*Store)(nil)
	_ driven.Collection           = (*collection)(nil)
)

// uniqueViolation is the PostgreSQL SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

// Store is a PostgreSQL implementation of driven.VectorStorageBackend.
type Store struct {
	db *sqlx.DB
}

// NewStore connects to dsn and applies pending migrations.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres DSN is empty", domain.ErrInvalidInput)
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: postgres: %v", domain.ErrVectorIndexUnavailable, err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Mode returns domain.StoragePostgres.
func (s *Store) Mode() domain.StorageMode {
	return domain.StoragePostgres
}

// GetOrCreate returns the named collection, creating it if needed.
func (s *Store) GetOrCreate(ctx context.Context, name string) (driven.Collection, error) {
	if err := vector.ValidateName(name); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO docrag_collections (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", name, err)
	}
	return &collection{store: s, name: name}, nil
}

// Delete removes a collection and its records.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM docrag_collections WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	return nil
}

// List returns collection names, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM docrag_collections ORDER BY name`); err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	return names, nil
}

func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS docrag_schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.GetContext(ctx, &current,
		`SELECT COALESCE(MAX(version), 0) FROM docrag_schema_migrations`); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO docrag_schema_migrations (version) VALUES ($1)`, version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
		logger.Debug("vector store: applied postgres migration %s", name)
	}
	return nil
}

type collection struct {
	store *Store
	name  string
}

// hitRow is the scan target for nearest-neighbour queries.
type hitRow struct {
	ID         string  `db:"id"`
	Content    string  `db:"content"`
	Filename   string  `db:"filename"`
	ChunkIndex int     `db:"chunk_index"`
	Distance   float64 `db:"distance"`
}

func (c *collection) Name() string {
	return c.name
}

func (c *collection) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.store.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM docrag_records WHERE collection = $1`, c.name); err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.name, err)
	}
	return n, nil
}

// Insert appends records in one transaction, all or nothing.
func (c *collection) Insert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := c.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO docrag_collections (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, c.name); err != nil {
		return fmt.Errorf("ensuring collection %s: %w", c.name, err)
	}

	var dims int
	err = tx.GetContext(ctx, &dims,
		`SELECT vector_dims(embedding) FROM docrag_records WHERE collection = $1 LIMIT 1`, c.name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reading dimensions: %w", err)
	}
	if _, err := vector.ValidateRecords(records, dims); err != nil {
		return err
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	query, args, err := sqlx.In(`SELECT id FROM docrag_records WHERE collection = ? AND id IN (?)`, c.name, ids)
	if err != nil {
		return fmt.Errorf("building duplicate check: %w", err)
	}
	var existing []string
	if err := tx.SelectContext(ctx, &existing, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("checking duplicates: %w", err)
	}
	if len(existing) > 0 {
		sort.Strings(existing)
		return fmt.Errorf("%w: %s", domain.ErrDuplicateID, strings.Join(existing, ", "))
	}

	for _, r := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO docrag_records (collection, id, content, filename, chunk_index, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, c.name, r.ID, r.Content, r.Metadata.Filename, r.Metadata.ChunkIndex, pgv.NewVector(r.Embedding))
		if err != nil {
			if isConflict(err) {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateID, r.ID)
			}
			return fmt.Errorf("inserting %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// Query ranks records in the database by cosine distance.
func (c *collection) Query(ctx context.Context, embedding []float32, k int) ([]domain.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	var rows []hitRow
	err := c.store.db.SelectContext(ctx, &rows, `
		SELECT id, content, filename, chunk_index, embedding <=> $2 AS distance
		FROM docrag_records
		WHERE collection = $1
		ORDER BY distance
		LIMIT $3
	`, c.name, pgv.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.name, err)
	}

	hits := make([]domain.VectorHit, len(rows))
	for i, r := range rows {
		hits[i] = domain.VectorHit{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: domain.RecordMetadata{Filename: r.Filename, ChunkIndex: r.ChunkIndex},
			Distance: r.Distance,
		}
	}
	return hits, nil
}

func (c *collection) Filenames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.store.db.SelectContext(ctx, &names,
		`SELECT DISTINCT filename FROM docrag_records WHERE collection = $1 ORDER BY filename`, c.name); err != nil {
		return nil, fmt.Errorf("listing filenames: %w", err)
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return vector.SortedFilenames(set), nil
}

func isConflict(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}
