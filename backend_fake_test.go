package dao_test

import (
	"sync"
	"testing"

	"github.com/tinywasm/dao"
)

// task is the model type the root-package tests run against.
type task struct {
	dao.Model
}

func (t *task) TableName() string { return "tasks" }

func (t *task) Defaults() dao.ValueMap {
	return dao.ValueMap{"importance": int64(3)}
}

var (
	taskName       = dao.TextProperty("name")
	taskImportance = dao.Int64Property("importance")
	taskNotes      = dao.TextProperty("notes")

	taskTable = dao.NewTable("tasks", []dao.Property{taskName, taskImportance, taskNotes})
)

func newTask() *task { return &task{} }

type insertCall struct {
	table    string
	idColumn string
	values   dao.ValueMap
}

type updateCall struct {
	table  string
	values dao.ValueMap
	where  string
}

type deleteCall struct {
	table string
	where string
}

// fakeBackend records every call and answers from canned results.
type fakeBackend struct {
	mu sync.Mutex

	queries []string
	inserts []insertCall
	updates []updateCall
	deletes []deleteCall

	cursorRows     [][]any
	nextID         int64
	updateAffected int64
	deleteAffected int64

	queryErr  error
	insertErr error
	updateErr error
	deleteErr error

	cursors []*fakeCursor
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{nextID: 1, updateAffected: 1, deleteAffected: 1}
}

func (f *fakeBackend) RawQuery(stmt string) (dao.RawCursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, stmt)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	c := &fakeCursor{rows: f.cursorRows, pos: -1}
	f.cursors = append(f.cursors, c)
	return c, nil
}

func (f *fakeBackend) Insert(table, idColumn string, values dao.ValueMap) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return -1, f.insertErr
	}
	f.inserts = append(f.inserts, insertCall{table: table, idColumn: idColumn, values: values})
	id := f.nextID
	f.nextID++
	return id, nil
}

func (f *fakeBackend) Update(table string, values dao.ValueMap, where string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	f.updates = append(f.updates, updateCall{table: table, values: values, where: where})
	return f.updateAffected, nil
}

func (f *fakeBackend) Delete(table, where string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deletes = append(f.deletes, deleteCall{table: table, where: where})
	return f.deleteAffected, nil
}

// fakeCursor serves canned rows and counts Close calls.
type fakeCursor struct {
	rows       [][]any
	pos        int
	closeCount int
}

func (c *fakeCursor) MoveToFirst() bool {
	c.pos = 0
	return len(c.rows) > 0
}

func (c *fakeCursor) MoveToNext() bool {
	c.pos++
	return c.pos < len(c.rows)
}

func (c *fakeCursor) IsAfterLast() bool { return c.pos >= len(c.rows) }
func (c *fakeCursor) Count() int        { return len(c.rows) }

func (c *fakeCursor) Close() error {
	c.closeCount++
	return nil
}

func (c *fakeCursor) cell(col int) any {
	if c.pos < 0 || c.pos >= len(c.rows) || col >= len(c.rows[c.pos]) {
		return nil
	}
	return c.rows[c.pos][col]
}

func (c *fakeCursor) Int64(col int) (int64, error) {
	v, _ := c.cell(col).(int64)
	return v, nil
}

func (c *fakeCursor) Float64(col int) (float64, error) {
	v, _ := c.cell(col).(float64)
	return v, nil
}

func (c *fakeCursor) String(col int) (string, error) {
	v, _ := c.cell(col).(string)
	return v, nil
}

func (c *fakeCursor) Bool(col int) (bool, error) {
	v, _ := c.cell(col).(bool)
	return v, nil
}

func (c *fakeCursor) Bytes(col int) ([]byte, error) {
	v, _ := c.cell(col).([]byte)
	return v, nil
}

func (c *fakeCursor) IsNull(col int) bool { return c.cell(col) == nil }

// newBoundDAO wires a DAO to a fresh handle over the given backend.
func newBoundDAO(t *testing.T, backend dao.Backend, opts ...dao.DatabaseOption) (*dao.DAO[*task], *dao.Database) {
	t.Helper()
	opts = append(opts, dao.WithTables(taskTable))
	db := dao.NewDatabase(backend, opts...)
	d, err := dao.New(newTask)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Bind(db); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return d, db
}
