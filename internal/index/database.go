// Package index keeps the SQLite mapping index: which code entities live in
// which layer directory, and a snapshot of the last parsed tree.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aidanlsb/arbor/internal/filelock"
)

// Database is the SQLite database handle.
type Database struct {
	db  *sql.DB
	now func() time.Time
}

// ErrIndexLocked indicates another process is opening or rebuilding the
// index.
var ErrIndexLocked = errors.New("index is locked for rebuild")

// CurrentDBVersion is the current database schema version.
const CurrentDBVersion = 1

// DB returns the underlying sql.DB for advanced queries.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Open opens or creates the database under <projectPath>/.arbor. A database
// written by an incompatible version is rebuilt; mappings are recomputed the
// next time the extractor hands records over.
func Open(projectPath string) (*Database, error) {
	dbDir := filepath.Join(projectPath, ".arbor")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create .arbor directory: %w", err)
	}

	lock, err := filelock.TryAcquire(filepath.Join(dbDir, "index.lock"))
	if errors.Is(err, filelock.ErrWouldBlock) {
		return nil, ErrIndexLocked
	}
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	dbPath := filepath.Join(dbDir, "index.db")
	if _, err := os.Stat(dbPath); err == nil && !isSchemaCompatible(dbPath) {
		if err := removeDatabaseFiles(dbPath); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newDatabase(db)
}

// OpenInMemory opens an in-memory database (for testing).
func OpenInMemory() (*Database, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every pooled connection would get its own empty in-memory database.
	db.SetMaxOpenConns(1)
	return newDatabase(db)
}

func newDatabase(db *sql.DB) (*Database, error) {
	d := &Database{db: db, now: time.Now}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		-- Code entities handed over by the extractor, keyed by file:name
		CREATE TABLE IF NOT EXISTS mappings (
			code_entity_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			file_path TEXT NOT NULL,
			line_number INTEGER NOT NULL,
			layer_path TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_mappings_layer ON mappings(layer_path);
		CREATE INDEX IF NOT EXISTS idx_mappings_status ON mappings(status);

		-- Snapshot of the last parsed tree
		CREATE TABLE IF NOT EXISTS entities (
			number TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			level INTEGER NOT NULL,
			line INTEGER NOT NULL
		);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	_, err := d.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		strconv.Itoa(CurrentDBVersion))
	if err != nil {
		return fmt.Errorf("failed to set database version: %w", err)
	}
	return nil
}

func isSchemaCompatible(dbPath string) bool {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return false
	}
	defer db.Close()

	var version string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&version); err != nil {
		return false
	}
	return version == strconv.Itoa(CurrentDBVersion)
}

func removeDatabaseFiles(dbPath string) error {
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}
