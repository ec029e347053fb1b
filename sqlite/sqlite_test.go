package sqlite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywasm/dao"
	"github.com/tinywasm/dao/sqlite"
)

type note struct {
	dao.Model
}

func (n *note) TableName() string { return "notes" }

func (n *note) Defaults() dao.ValueMap {
	return dao.ValueMap{"value": int64(0)}
}

var (
	noteName  = dao.TextProperty("name")
	noteValue = dao.Int64Property("value")

	noteTable = dao.NewTable("notes", []dao.Property{noteName, noteValue})
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Exec(
		`CREATE TABLE notes (_id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, value INTEGER)`))
	return store
}

func newNoteDAO(t *testing.T) (*dao.DAO[*note], *sqlite.Store) {
	t.Helper()
	store := openStore(t)
	db := dao.NewDatabase(store, dao.WithTables(noteTable))
	d, err := dao.New(func() *note { return &note{} })
	require.NoError(t, err)
	require.NoError(t, d.Bind(db))
	return d, store
}

func TestEndToEnd(t *testing.T) {
	d, _ := newNoteDAO(t)

	// create
	m := &note{}
	m.SetString(noteName, "A")
	m.SetInt64(noteValue, 1)
	require.NoError(t, d.CreateNew(m))
	require.Greater(t, m.ID(), int64(0))
	assert.False(t, m.IsDirty())

	// fetch reads back what was written
	got, ok, err := d.Fetch(m.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", got.String(noteName))
	assert.Equal(t, int64(1), got.Int64(noteValue))
	assert.Equal(t, m.ID(), got.ID())

	// update one column, re-fetch
	got.SetInt64(noteValue, 2)
	require.NoError(t, d.Persist(got))

	again, ok, err := d.Fetch(m.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), again.Int64(noteValue))
	assert.Equal(t, "A", again.String(noteName), "name unchanged")
}

func TestUpdateDoesNotClobberUnreadColumns(t *testing.T) {
	d, _ := newNoteDAO(t)

	m := &note{}
	m.SetString(noteName, "A")
	m.SetInt64(noteValue, 1)
	require.NoError(t, d.CreateNew(m))

	// load only the identifier and name, change only the name
	partial, ok, err := d.Fetch(m.ID(), noteTable.ID(), noteName)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, partial.Has(noteValue))

	partial.SetString(noteName, "B")
	require.NoError(t, d.Persist(partial))

	full, ok, err := d.Fetch(m.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "B", full.String(noteName))
	assert.Equal(t, int64(1), full.Int64(noteValue), "unread column survives the partial write")
}

func TestPersistFreshlyMaterializedIsNoOp(t *testing.T) {
	d, _ := newNoteDAO(t)

	m := &note{}
	m.SetString(noteName, "A")
	require.NoError(t, d.CreateNew(m))

	loaded, ok, err := d.Fetch(m.ID())
	require.NoError(t, err)
	require.True(t, ok)

	notified := 0
	d.AddListener(func(*note) { notified++ })
	require.NoError(t, d.Persist(loaded))
	assert.Zero(t, notified, "persisting an unmodified model writes nothing")
}

func TestInsertAppliesDefaults(t *testing.T) {
	d, _ := newNoteDAO(t)

	m := &note{}
	m.SetString(noteName, "defaulted")
	require.NoError(t, d.CreateNew(m))

	got, ok, err := d.Fetch(m.ID())
	require.NoError(t, err)
	require.True(t, ok)
	v, known := got.Value(noteValue)
	require.True(t, known, "default-valued column was written at insert")
	assert.Equal(t, int64(0), v)
}

func TestDeleteSemantics(t *testing.T) {
	d, _ := newNoteDAO(t)

	m := &note{}
	m.SetString(noteName, "A")
	require.NoError(t, d.CreateNew(m))

	ok, err := d.Delete(m.ID())
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err := d.Fetch(m.ID())
	require.NoError(t, err)
	assert.False(t, found)

	ok, err = d.Delete(m.ID())
	require.NoError(t, err)
	assert.False(t, ok, "deleting a missing row reports false")
}

func TestQueriesAgainstRealStore(t *testing.T) {
	d, _ := newNoteDAO(t)

	for i, name := range []string{"a", "b", "c"} {
		m := &note{}
		m.SetString(noteName, name)
		m.SetInt64(noteValue, int64(i))
		require.NoError(t, d.CreateNew(m))
	}

	n, err := d.Count(dao.Select().Where(noteValue.Gte(1)))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := d.ToList(dao.Select().OrderBy(dao.Desc(noteValue)).Limit(2))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].String(noteName))
	assert.Equal(t, "b", items[1].String(noteName))

	first, ok, err := d.First(dao.Select().Where(noteName.Eq("b")))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), first.Int64(noteValue))

	_, ok, err = d.First(dao.Select().Where(noteName.Eq("zz")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBulkPaths(t *testing.T) {
	d, _ := newNoteDAO(t)

	for i := 0; i < 4; i++ {
		m := &note{}
		m.SetInt64(noteValue, int64(i))
		require.NoError(t, d.CreateNew(m))
	}

	template := &note{}
	template.SetString(noteName, "stale")
	n, err := d.UpdateWhere(noteValue.Lt(2), template)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	stale, err := d.Count(dao.Select().Where(noteName.Eq("stale")))
	require.NoError(t, err)
	assert.Equal(t, 2, stale)

	removed, err := d.DeleteWhere(noteName.Eq("stale"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := d.Count(dao.Select())
	require.NoError(t, err)
	assert.Equal(t, 2, left)

	removed, err = d.DeleteWhere(noteName.Eq("stale"))
	require.NoError(t, err)
	assert.Zero(t, removed, "zero matches is a valid outcome")
}

func TestStorePrimitives(t *testing.T) {
	store := openStore(t)

	// empty value map inserts an all-defaults row
	id, err := store.Insert("notes", "_id", nil)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	// empty column list on update is an error, not a silent no-op
	_, err = store.Update("notes", nil, "")
	require.Error(t, err)

	// empty where clause matches every row
	n, err := store.Delete("notes", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRawQueryBuffersResults(t *testing.T) {
	store := openStore(t)
	_, err := store.Insert("notes", "_id", dao.ValueMap{"name": "a", "value": int64(1)})
	require.NoError(t, err)
	_, err = store.Insert("notes", "_id", dao.ValueMap{"name": "b", "value": int64(2)})
	require.NoError(t, err)

	cur, err := store.RawQuery("SELECT name, value FROM notes ORDER BY value ASC")
	require.NoError(t, err)
	defer cur.Close()

	assert.Equal(t, 2, cur.Count())
	require.True(t, cur.MoveToFirst())
	name, err := cur.String(0)
	require.NoError(t, err)
	assert.Equal(t, "a", name)
	require.True(t, cur.MoveToNext())
	v, err := cur.Int64(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	assert.False(t, cur.MoveToNext())
	assert.True(t, cur.IsAfterLast())
}
