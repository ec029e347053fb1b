package dao

import "errors"

// ErrNilFactory is returned by New when no model factory is supplied.
var ErrNilFactory = errors.New("nil model factory")

// ErrNotBound is returned when a DAO method runs before Bind.
var ErrNotBound = errors.New("dao not bound to a database")

// ErrNoTable is returned by Database.Resolve for an unregistered table.
var ErrNoTable = errors.New("table not registered")

// ErrNoRowsAffected is returned by SaveExisting and Delete when the
// identifier matched nothing. Zero matches on the bulk paths is not an
// error; it is a valid count.
var ErrNoRowsAffected = errors.New("no rows affected")

// ErrColumnType is returned by cursor accessors when the stored value
// cannot be converted to the requested type.
var ErrColumnType = errors.New("column type mismatch")

// ErrNoSuchColumn is returned by the cursor adapter when a property is not
// part of the query's selection.
var ErrNoSuchColumn = errors.New("property not selected in query")

// ErrNoTableSet is returned when a query is rendered without a target table.
var ErrNoTableSet = errors.New("query has no target table")

// ErrCursorClosed is returned when a released cursor is read again.
var ErrCursorClosed = errors.New("cursor closed")
