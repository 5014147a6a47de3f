// Package store records build artifacts in a SQLite database so earlier
// builds can be listed and reloaded by hash or name.
package store

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/cfiasm/pkg/artifact"
)

var log = commonlog.GetLogger("cfiasm.store")

// ErrNotFound indicates the requested artifact doesn't exist.
var ErrNotFound = errors.New("artifact not found")

// Entry summarizes a stored artifact.
type Entry struct {
	Hash    string // hex
	Name    string
	Size    int // emitted bytes
	Created time.Time
}

// Store is a SQLite-backed artifact database.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS artifacts (
		hash    TEXT PRIMARY KEY,
		name    TEXT NOT NULL,
		size    INTEGER NOT NULL,
		created INTEGER NOT NULL,
		data    BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save persists an artifact. Saving the same content again refreshes its
// name and timestamp.
func (s *Store) Save(a *artifact.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := artifact.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}

	hash := hex.EncodeToString(a.Hash[:])
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO artifacts (hash, name, size, created, data) VALUES (?, ?, ?, ?, ?)",
		hash, a.Name, len(a.Emitted()), time.Now().UnixNano(), data,
	)
	if err != nil {
		return fmt.Errorf("saving artifact: %w", err)
	}

	log.Info("artifact saved", "name", a.Name, "hash", hash, "db", s.path)
	return nil
}

// Load retrieves an artifact by hash.
func (s *Store) Load(hash [32]byte) (*artifact.Artifact, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM artifacts WHERE hash = ?", hex.EncodeToString(hash[:])).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying artifact: %w", err)
	}
	return artifact.Unmarshal(data)
}

// Latest retrieves the most recently saved artifact with the given name.
func (s *Store) Latest(name string) (*artifact.Artifact, error) {
	var data []byte
	err := s.db.QueryRow(
		"SELECT data FROM artifacts WHERE name = ? ORDER BY created DESC, rowid DESC LIMIT 1",
		name,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying artifact: %w", err)
	}
	return artifact.Unmarshal(data)
}

// List returns every stored artifact, newest first.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query("SELECT hash, name, size, created FROM artifacts ORDER BY created DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.Hash, &e.Name, &e.Size, &created); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		e.Created = time.Unix(0, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
