// Package sqlite provides a dao.Backend over a sqlite database using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tinywasm/dao"
	_ "modernc.org/sqlite"
)

// Store implements dao.Backend on a live sqlite connection.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn (":memory:" for an in-memory
// store). The pool is pinned to one connection so an in-memory database
// stays coherent across calls; the DAO layer's write lock serializes
// writers above this anyway.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Close releases the connection.
func (s *Store) Close() error { return s.db.Close() }

// Exec runs a raw statement. Schema setup goes through here; the DAO layer
// never does.
func (s *Store) Exec(stmt string, args ...any) error {
	if _, err := s.db.Exec(stmt, args...); err != nil {
		return fmt.Errorf("exec %q: %w", stmt, err)
	}
	return nil
}

// RawQuery runs a rendered SELECT. The result set is buffered in memory so
// the cursor can report its count and be walked from the first row, the
// way the platform cursors this layer descends from did.
func (s *Store) RawQuery(stmt string) (dao.RawCursor, error) {
	rows, err := s.db.Query(stmt)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", stmt, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var data [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &memCursor{rows: data, pos: -1}, nil
}

// Insert writes a new row and returns its rowid. An empty value map
// inserts an all-defaults row through the identifier column.
func (s *Store) Insert(table, idColumn string, values dao.ValueMap) (int64, error) {
	var stmt string
	var args []any
	if len(values) == 0 {
		stmt = fmt.Sprintf("INSERT INTO %s (%s) VALUES (NULL)", table, idColumn)
	} else {
		cols := sortedColumns(values)
		var b strings.Builder
		b.WriteString("INSERT INTO ")
		b.WriteString(table)
		b.WriteString(" (")
		b.WriteString(strings.Join(cols, ", "))
		b.WriteString(") VALUES (")
		for i, c := range cols {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('?')
			args = append(args, values[c])
		}
		b.WriteByte(')')
		stmt = b.String()
	}
	res, err := s.db.Exec(stmt, args...)
	if err != nil {
		return -1, fmt.Errorf("insert into %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return -1, err
	}
	return id, nil
}

// Update writes values to every row matching where and returns the
// affected-row count. An empty where clause matches every row; an empty
// value map is an error rather than a silent no-op.
func (s *Store) Update(table string, values dao.ValueMap, where string) (int64, error) {
	if len(values) == 0 {
		return 0, errors.New("update with empty column list")
	}
	cols := sortedColumns(values)
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(table)
	b.WriteString(" SET ")
	args := make([]any, 0, len(cols))
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c)
		b.WriteString(" = ?")
		args = append(args, values[c])
	}
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	res, err := s.db.Exec(b.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	return res.RowsAffected()
}

// Delete removes every row matching where and returns the affected-row
// count.
func (s *Store) Delete(table, where string) (int64, error) {
	stmt := "DELETE FROM " + table
	if where != "" {
		stmt += " WHERE " + where
	}
	res, err := s.db.Exec(stmt)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	return res.RowsAffected()
}

// sortedColumns fixes the statement's column order; map iteration alone
// would render a different statement per call.
func sortedColumns(values dao.ValueMap) []string {
	cols := make([]string, 0, len(values))
	for c := range values {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}
