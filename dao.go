package dao

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// UpdateListener observes successful single-row writes. Each listener
// receives a private deep-copied snapshot; mutating it never affects the
// caller's model or other listeners.
type UpdateListener[T Modeler] func(model T)

// DAO reads and writes one model type through a shared Database handle.
// The factory supplies fresh instances for row materialization; it is the
// only capability a model type must provide beyond the Modeler contract.
//
// All operations are synchronous and block the calling thread. Reads need
// no external locking; single-row writes serialize on the handle's write
// lock so that write, listener notification and mark-clean form one
// critical section across every DAO sharing the handle.
type DAO[T Modeler] struct {
	factory   func() T
	db        *Database
	table     *Table
	listeners []UpdateListener[T]
	log       hclog.Logger
}

// New creates a DAO for the model type produced by factory. A nil factory
// is a configuration error: every materialized row needs a fresh instance.
func New[T Modeler](factory func() T) (*DAO[T], error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	return &DAO[T]{factory: factory, log: hclog.NewNullLogger()}, nil
}

// Bind attaches the DAO to a database handle and resolves its table.
// Binding the same handle again is a no-op; binding a different handle
// re-resolves, which tests use to swap handles.
func (d *DAO[T]) Bind(db *Database) error {
	if db == d.db {
		return nil
	}
	table, err := db.Resolve(d.factory().TableName())
	if err != nil {
		return err
	}
	d.db = db
	d.table = table
	d.log = db.Logger()
	return nil
}

// Table returns the bound table descriptor, nil before Bind.
func (d *DAO[T]) Table() *Table { return d.table }

// AddListener appends an observer of successful single-row writes.
// Listeners live as long as the DAO; there is no removal.
func (d *DAO[T]) AddListener(fn UpdateListener[T]) {
	d.listeners = append(d.listeners, fn)
}

func (d *DAO[T]) notifyUpdated(item T) {
	if len(d.listeners) == 0 {
		return
	}
	snap := d.factory()
	snap.Base().CopyFrom(item.Base())
	for _, fn := range d.listeners {
		fn(snap)
	}
}

// Query executes q and returns its cursor. The DAO's table fills in when
// the query names none. The caller owns the cursor and must Close it.
func (d *DAO[T]) Query(q *Query) (*Cursor, error) {
	if d.db == nil {
		return nil, ErrNotBound
	}
	stmt, props, err := q.build(d.table)
	if err != nil {
		return nil, err
	}
	raw, err := d.db.Backend().RawQuery(stmt)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", stmt, err)
	}
	return NewCursor(raw, props), nil
}

// ForEach executes q and invokes fn once per materialized row. The cursor
// is released on every path, including a failing callback; a close failure
// joins the callback error.
func (d *DAO[T]) ForEach(q *Query, fn func(item T) error) (err error) {
	cursor, qerr := d.Query(q)
	if qerr != nil {
		return qerr
	}
	defer func() {
		if cerr := cursor.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()
	for cursor.MoveToFirst(); !cursor.IsAfterLast(); cursor.MoveToNext() {
		item, merr := d.fromCursor(cursor)
		if merr != nil {
			return merr
		}
		if ferr := fn(item); ferr != nil {
			return ferr
		}
	}
	return nil
}

// ToList executes q and collects every materialized row, eagerly.
func (d *DAO[T]) ToList(q *Query) ([]T, error) {
	var out []T
	err := d.ForEach(q, func(item T) error {
		out = append(out, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// First executes q and returns the first materialized row. The second
// result is false when no row matched; absence is not an error.
func (d *DAO[T]) First(q *Query) (item T, ok bool, err error) {
	cursor, qerr := d.Query(q)
	if qerr != nil {
		return item, false, qerr
	}
	defer func() {
		if cerr := cursor.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
			ok = false
		}
	}()
	if !cursor.MoveToFirst() {
		return item, false, nil
	}
	item, err = d.fromCursor(cursor)
	if err != nil {
		return item, false, err
	}
	return item, true, nil
}

// Fetch returns the row with the given identifier, materializing only the
// requested properties. Select the table's ID property when the result
// will be persisted again. With no properties the full property list is
// read. False means no such row.
func (d *DAO[T]) Fetch(id int64, props ...Property) (T, bool, error) {
	var zero T
	if d.db == nil {
		return zero, false, ErrNotBound
	}
	q := Select(props...).From(d.table).Where(d.table.ID().Eq(id))
	return d.First(q)
}

// Count executes q and returns its row count without materializing models.
func (d *DAO[T]) Count(q *Query) (int, error) {
	cursor, err := d.Query(q)
	if err != nil {
		return 0, err
	}
	n := cursor.Count()
	return n, cursor.Close()
}

// fromCursor materializes one model from the cursor's current row. Values
// land in the all-values view only: a freshly materialized model has an
// empty dirty set, so persisting it untouched is a no-op. NULL columns
// stay unset.
func (d *DAO[T]) fromCursor(c *Cursor) (T, error) {
	item := d.factory()
	base := item.Base()
	for _, p := range c.Properties() {
		if c.IsNull(p) {
			continue
		}
		var err error
		switch p.Type() {
		case TypeInt64:
			var v int64
			if v, err = c.Int64(p); err == nil {
				if p.Same(d.table.ID()) {
					base.SetID(v)
				} else {
					base.load(p.Name(), v)
				}
			}
		case TypeText:
			var v string
			if v, err = c.String(p); err == nil {
				base.load(p.Name(), v)
			}
		case TypeFloat64:
			var v float64
			if v, err = c.Float64(p); err == nil {
				base.load(p.Name(), v)
			}
		case TypeBool:
			var v bool
			if v, err = c.Bool(p); err == nil {
				base.load(p.Name(), v)
			}
		case TypeBlob:
			var v []byte
			if v, err = c.Bytes(p); err == nil {
				base.load(p.Name(), v)
			}
		}
		if err != nil {
			var zero T
			return zero, fmt.Errorf("materialize %s.%s: %w", d.table.Name(), p.Name(), err)
		}
	}
	return item, nil
}

// Delete removes the row with the given identifier. True means at least
// one row went away.
func (d *DAO[T]) Delete(id int64) (bool, error) {
	if d.db == nil {
		return false, ErrNotBound
	}
	n, err := d.db.Backend().Delete(d.table.Name(), d.table.ID().Eq(id).SQL())
	if err != nil {
		return false, fmt.Errorf("delete %s id %d: %w", d.table.Name(), id, err)
	}
	return n > 0, nil
}

// DeleteWhere removes every row matching the criterion and returns the
// affected-row count. Zero is a valid outcome, not an error.
func (d *DAO[T]) DeleteWhere(where Criterion) (int64, error) {
	if d.db == nil {
		return 0, ErrNotBound
	}
	d.log.Debug("deleteWhere", "table", d.table.Name(), "criterion", where.SQL())
	n, err := d.db.Backend().Delete(d.table.Name(), where.SQL())
	if err != nil {
		return 0, fmt.Errorf("deleteWhere %s: %w", d.table.Name(), err)
	}
	return n, nil
}

// UpdateWhere writes the template's dirty set to every row matching the
// criterion and returns the affected-row count. Bulk by design: listeners
// are not notified and the template is not marked saved, it remains a
// reusable write pattern. Unlike the single-row path this does not
// short-circuit on an empty dirty set; backends may reject the empty
// column list.
func (d *DAO[T]) UpdateWhere(where Criterion, template T) (int64, error) {
	if d.db == nil {
		return 0, ErrNotBound
	}
	n, err := d.db.Backend().Update(d.table.Name(), template.Base().SetValues(), where.SQL())
	if err != nil {
		return 0, fmt.Errorf("updateWhere %s: %w", d.table.Name(), err)
	}
	return n, nil
}

// Persist writes the model: an insert when it has no identifier, an update
// of its dirty columns when it does. Persisting a loaded, unmodified model
// is a guaranteed no-op.
func (d *DAO[T]) Persist(item T) error {
	base := item.Base()
	if base.ID() == NoID {
		return d.CreateNew(item)
	}
	if !base.IsDirty() {
		return nil
	}
	return d.SaveExisting(item)
}

// CreateNew inserts the model using its defaults merged with its dirty
// values, then assigns the generated identifier. Any stale identifier on
// the instance is cleared first. On success listeners are notified and the
// model is marked clean; on failure the dirty set is untouched and no
// listener runs.
func (d *DAO[T]) CreateNew(item T) error {
	if d.db == nil {
		return ErrNotBound
	}
	base := item.Base()
	base.ClearID()
	return d.applyChange(item, func() error {
		id, err := d.db.Backend().Insert(
			d.table.Name(), d.table.ID().Name(), base.MergedValues(item.Defaults()))
		if err != nil {
			return fmt.Errorf("insert %s: %w", d.table.Name(), err)
		}
		if id <= NoID {
			return fmt.Errorf("insert %s: engine returned row id %d", d.table.Name(), id)
		}
		base.SetID(id)
		return nil
	})
}

// SaveExisting updates the model's row, writing only its dirty columns.
// An empty dirty set succeeds without touching the store. Fails with
// ErrNoRowsAffected when the identifier matches nothing.
func (d *DAO[T]) SaveExisting(item T) error {
	if d.db == nil {
		return ErrNotBound
	}
	base := item.Base()
	values := base.SetValues()
	if len(values) == 0 {
		return nil
	}
	return d.applyChange(item, func() error {
		n, err := d.db.Backend().Update(
			d.table.Name(), values, d.table.ID().Eq(base.ID()).SQL())
		if err != nil {
			return fmt.Errorf("update %s id %d: %w", d.table.Name(), base.ID(), err)
		}
		if n == 0 {
			return fmt.Errorf("update %s id %d: %w", d.table.Name(), base.ID(), ErrNoRowsAffected)
		}
		return nil
	})
}

// applyChange runs a single-row write, listener notification and
// mark-clean as one critical section on the shared handle. Listeners
// observe successful writes exactly once, in the order the writes
// complete, across every DAO on this handle. A failed op leaves the dirty
// set intact and notifies nobody.
func (d *DAO[T]) applyChange(item T, op func() error) error {
	d.db.writeMu.Lock()
	defer d.db.writeMu.Unlock()
	if err := op(); err != nil {
		return err
	}
	d.notifyUpdated(item)
	item.Base().MarkSaved()
	return nil
}
