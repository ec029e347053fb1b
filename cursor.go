package dao

import "fmt"

// RawCursor is the storage engine's positioned result set. Engines provide
// this; the DAO never touches column indexes directly, only through the
// Cursor adapter.
type RawCursor interface {
	// MoveToFirst positions on the first row, reporting false for an
	// empty result.
	MoveToFirst() bool
	// MoveToNext advances one row, reporting false when past the end.
	MoveToNext() bool
	// IsAfterLast reports whether the position is past the last row.
	IsAfterLast() bool
	// Count returns the total number of rows.
	Count() int

	Int64(col int) (int64, error)
	Float64(col int) (float64, error)
	String(col int) (string, error)
	Bool(col int) (bool, error)
	Bytes(col int) ([]byte, error)
	IsNull(col int) bool

	// Close releases the result set. Engines may pin resources until
	// this is called.
	Close() error
}

// Cursor adapts a RawCursor to typed access by property, using the
// query's ordered selection as the column-to-index mapping. It is a
// transient, non-owning view; the caller that obtained it must Close it
// exactly once on every path, which the adapter enforces with an
// idempotent guard.
type Cursor struct {
	raw    RawCursor
	props  []Property
	index  map[string]int
	closed bool
}

// NewCursor binds a raw result set to the ordered property list that
// produced it.
func NewCursor(raw RawCursor, props []Property) *Cursor {
	index := make(map[string]int, len(props))
	for i, p := range props {
		index[p.Name()] = i
	}
	return &Cursor{raw: raw, props: props, index: index}
}

// Properties returns the ordered selection backing this cursor.
func (c *Cursor) Properties() []Property { return c.props }

func (c *Cursor) MoveToFirst() bool { return c.raw.MoveToFirst() }
func (c *Cursor) MoveToNext() bool  { return c.raw.MoveToNext() }
func (c *Cursor) IsAfterLast() bool { return c.raw.IsAfterLast() }
func (c *Cursor) Count() int        { return c.raw.Count() }

func (c *Cursor) columnIndex(p Property) (int, error) {
	if c.closed {
		return 0, ErrCursorClosed
	}
	i, ok := c.index[p.Name()]
	if !ok {
		return 0, fmt.Errorf("%s: %w", p.Name(), ErrNoSuchColumn)
	}
	return i, nil
}

// Int64 reads the current row's value for the property.
func (c *Cursor) Int64(p Property) (int64, error) {
	i, err := c.columnIndex(p)
	if err != nil {
		return 0, err
	}
	return c.raw.Int64(i)
}

// Float64 reads the current row's value for the property.
func (c *Cursor) Float64(p Property) (float64, error) {
	i, err := c.columnIndex(p)
	if err != nil {
		return 0, err
	}
	return c.raw.Float64(i)
}

// String reads the current row's value for the property.
func (c *Cursor) String(p Property) (string, error) {
	i, err := c.columnIndex(p)
	if err != nil {
		return "", err
	}
	return c.raw.String(i)
}

// Bool reads the current row's value for the property.
func (c *Cursor) Bool(p Property) (bool, error) {
	i, err := c.columnIndex(p)
	if err != nil {
		return false, err
	}
	return c.raw.Bool(i)
}

// Bytes reads the current row's value for the property.
func (c *Cursor) Bytes(p Property) ([]byte, error) {
	i, err := c.columnIndex(p)
	if err != nil {
		return nil, err
	}
	return c.raw.Bytes(i)
}

// IsNull reports whether the current row's value for the property is NULL.
func (c *Cursor) IsNull(p Property) bool {
	i, err := c.columnIndex(p)
	if err != nil {
		return true
	}
	return c.raw.IsNull(i)
}

// Close releases the underlying raw cursor. Safe to call more than once;
// the raw cursor is closed exactly once.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.raw.Close()
}
