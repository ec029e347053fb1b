package sqlite

import (
	"fmt"

	"github.com/tinywasm/dao"
)

// memCursor is a dao.RawCursor over a fully buffered result set.
// Position -1 is before the first row.
type memCursor struct {
	rows   [][]any
	pos    int
	closed bool
}

func (c *memCursor) MoveToFirst() bool {
	c.pos = 0
	return len(c.rows) > 0
}

func (c *memCursor) MoveToNext() bool {
	c.pos++
	return c.pos < len(c.rows)
}

func (c *memCursor) IsAfterLast() bool { return c.pos >= len(c.rows) }

func (c *memCursor) Count() int { return len(c.rows) }

func (c *memCursor) Close() error {
	c.closed = true
	c.rows = nil
	return nil
}

func (c *memCursor) value(col int) (any, error) {
	if c.closed {
		return nil, dao.ErrCursorClosed
	}
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("cursor not positioned on a row")
	}
	row := c.rows[c.pos]
	if col < 0 || col >= len(row) {
		return nil, fmt.Errorf("column %d out of range", col)
	}
	return row[col], nil
}

func (c *memCursor) Int64(col int) (int64, error) {
	v, err := c.value(col)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	}
	return 0, fmt.Errorf("%T as int64: %w", v, dao.ErrColumnType)
}

func (c *memCursor) Float64(col int) (float64, error) {
	v, err := c.value(col)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	}
	return 0, fmt.Errorf("%T as float64: %w", v, dao.ErrColumnType)
}

func (c *memCursor) String(col int) (string, error) {
	v, err := c.value(col)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	}
	return "", fmt.Errorf("%T as string: %w", v, dao.ErrColumnType)
}

func (c *memCursor) Bool(col int) (bool, error) {
	v, err := c.value(col)
	if err != nil {
		return false, err
	}
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	}
	return false, fmt.Errorf("%T as bool: %w", v, dao.ErrColumnType)
}

func (c *memCursor) Bytes(col int) ([]byte, error) {
	v, err := c.value(col)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	}
	return nil, fmt.Errorf("%T as bytes: %w", v, dao.ErrColumnType)
}

func (c *memCursor) IsNull(col int) bool {
	v, err := c.value(col)
	if err != nil {
		return false
	}
	return v == nil
}
