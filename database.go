package dao

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Backend is the storage engine seam. Implementations wrap a live
// connection; the handle and the DAOs above it never speak SQL transport
// directly. All calls block until the engine answers.
type Backend interface {
	// RawQuery runs a rendered SELECT and returns its result set.
	RawQuery(stmt string) (RawCursor, error)
	// Insert writes a new row and returns its generated identifier.
	// idColumn names the identifier so engines can still insert an
	// all-defaults row when values is empty.
	Insert(table, idColumn string, values ValueMap) (int64, error)
	// Update writes values to every row matching the rendered where
	// clause and returns the affected-row count. An empty where clause
	// matches every row.
	Update(table string, values ValueMap, where string) (int64, error)
	// Delete removes every row matching the rendered where clause and
	// returns the affected-row count.
	Delete(table, where string) (int64, error)
}

// Database is the shared handle a group of DAOs operates through. It owns
// the backend, resolves model tables, and anchors the single write lock:
// every single-row create/update across every DAO sharing this handle
// executes its write, listener notification and mark-clean as one critical
// section under writeMu. Reads and bulk writes bypass the lock and rely on
// the engine's own isolation.
type Database struct {
	backend Backend
	log     hclog.Logger

	mu     sync.RWMutex // guards tables
	tables map[string]*Table

	writeMu sync.Mutex
}

// DatabaseOption configures a Database handle.
type DatabaseOption func(*Database)

// WithLogger sets the handle's logger. Defaults to a null logger.
func WithLogger(l hclog.Logger) DatabaseOption {
	return func(db *Database) { db.log = l }
}

// WithTables registers table descriptors at construction.
func WithTables(tables ...*Table) DatabaseOption {
	return func(db *Database) {
		for _, t := range tables {
			db.tables[t.Name()] = t
		}
	}
}

// NewDatabase wraps a backend in a handle.
func NewDatabase(backend Backend, opts ...DatabaseOption) *Database {
	db := &Database{
		backend: backend,
		log:     hclog.NewNullLogger(),
		tables:  make(map[string]*Table),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Register adds a table descriptor after construction.
func (db *Database) Register(t *Table) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables[t.Name()] = t
}

// Resolve returns the descriptor registered under the given table name.
func (db *Database) Resolve(name string) (*Table, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, ok := db.tables[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoTable)
	}
	return t, nil
}

// Backend exposes the underlying engine primitives.
func (db *Database) Backend() Backend { return db.backend }

// Logger returns the handle's logger.
func (db *Database) Logger() hclog.Logger { return db.log }
