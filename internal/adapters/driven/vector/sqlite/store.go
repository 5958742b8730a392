package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docrag/internal/adapters/driven/vector"
	"github.com/custodia-labs/docrag/internal/adapters/driven/vector/sqlite/migrations"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure types implement the interfaces.
var (
	_ driven.VectorStorageBackend = (*Store)(nil)
	_ driven.Collection           = (*collection)(nil)
)

// DBFile is the database file name inside the data directory.
const DBFile = "vectors.db"

// Store is a SQLite-backed implementation of driven.VectorStorageBackend.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates vectors.db in dataDir.
// If dataDir is empty, defaults to ~/.docrag/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docrag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Pragmas are per connection; one connection keeps them in force.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Debug("vector store: opened %s", dbPath)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Mode returns domain.StoragePersistent.
func (s *Store) Mode() domain.StorageMode {
	return domain.StoragePersistent
}

// GetOrCreate returns the named collection, creating it if needed.
func (s *Store) GetOrCreate(ctx context.Context, name string) (driven.Collection, error) {
	if err := vector.ValidateName(name); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", name, err)
	}
	return &collection{store: s, name: name}, nil
}

// Delete removes a collection and its records.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
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
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
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

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}

	return nil
}

// collection implements driven.Collection over the records table.
type collection struct {
	store *Store
	name  string
}

func (c *collection) Name() string {
	return c.name
}

func (c *collection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE collection = ?`, c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.name, err)
	}
	return n, nil
}

// dims returns the stored embedding size, or zero for an empty collection.
func (c *collection) dims(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}) (int, error) {
	var dims int
	err := q.QueryRowContext(ctx,
		`SELECT dims FROM records WHERE collection = ? LIMIT 1`, c.name).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return dims, err
}

// Insert appends records in one transaction, all or nothing.
func (c *collection) Insert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Re-create the parent row in case the collection was deleted while
	// this handle was held.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO collections (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, c.name); err != nil {
		return fmt.Errorf("ensuring collection %s: %w", c.name, err)
	}

	dims, err := c.dims(ctx, tx)
	if err != nil {
		return fmt.Errorf("reading dimensions: %w", err)
	}
	dims, err = vector.ValidateRecords(records, dims)
	if err != nil {
		return err
	}

	check, err := tx.PrepareContext(ctx, `SELECT 1 FROM records WHERE collection = ? AND id = ?`)
	if err != nil {
		return fmt.Errorf("preparing duplicate check: %w", err)
	}
	defer check.Close()

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO records (collection, id, content, filename, chunk_index, dims, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer insert.Close()

	for _, r := range records {
		var one int
		err := check.QueryRowContext(ctx, c.name, r.ID).Scan(&one)
		if err == nil {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, r.ID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking %s: %w", r.ID, err)
		}

		if _, err := insert.ExecContext(ctx,
			c.name, r.ID, r.Content, r.Metadata.Filename, r.Metadata.ChunkIndex,
			dims, float32SliceToBytes(r.Embedding),
		); err != nil {
			return fmt.Errorf("inserting %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// Query scans the collection and ranks by cosine distance.
func (c *collection) Query(ctx context.Context, embedding []float32, k int) ([]domain.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := c.store.db.QueryContext(ctx, `
		SELECT id, content, filename, chunk_index, embedding
		FROM records WHERE collection = ?
	`, c.name)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.name, err)
	}
	defer rows.Close()

	var cands []vector.Candidate
	for rows.Next() {
		var (
			r    domain.VectorRecord
			blob []byte
		)
		if err := rows.Scan(&r.ID, &r.Content, &r.Metadata.Filename, &r.Metadata.ChunkIndex, &blob); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		emb := bytesToFloat32Slice(blob)
		if len(emb) != len(embedding) {
			return nil, fmt.Errorf("%w: query has %d dimensions, collection %s has %d",
				domain.ErrInvalidInput, len(embedding), c.name, len(emb))
		}
		cands = append(cands, vector.Candidate{Record: r, Distance: vector.CosineDistance(embedding, emb)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return vector.Nearest(cands, k), nil
}

func (c *collection) Filenames(ctx context.Context) ([]string, error) {
	rows, err := c.store.db.QueryContext(ctx,
		`SELECT DISTINCT filename FROM records WHERE collection = ? ORDER BY filename`, c.name)
	if err != nil {
		return nil, fmt.Errorf("listing filenames: %w", err)
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning filename: %w", err)
		}
		names[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vector.SortedFilenames(names), nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
