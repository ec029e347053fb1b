package dao

// ValueMap holds column values keyed by property name.
type ValueMap map[string]any

// Clone returns a deep copy. Blob values are copied so the clone never
// shares mutable storage with the source.
func (vm ValueMap) Clone() ValueMap {
	if vm == nil {
		return nil
	}
	out := make(ValueMap, len(vm))
	for k, v := range vm {
		if b, ok := v.([]byte); ok {
			c := make([]byte, len(b))
			copy(c, b)
			out[k] = c
			continue
		}
		out[k] = v
	}
	return out
}

// NoID marks a model that has never been successfully inserted.
const NoID int64 = 0

// Model is the embeddable base of every row type. It tracks three views of
// the row: every value known to the instance, the values changed since load
// or last save (the dirty set), and the merged defaults-plus-dirty map used
// at insert time. Setters mark values dirty; loads from a cursor do not.
//
// Model is not safe for concurrent mutation; an instance belongs to the
// caller that obtained it.
type Model struct {
	id     int64
	values ValueMap
	dirty  ValueMap
}

// Modeler is the contract a row type satisfies by embedding Model and
// declaring its table. Defaults supplies per-type default column values
// merged into the first insert; the embedded Model provides a nil default.
type Modeler interface {
	TableName() string
	Defaults() ValueMap
	Base() *Model
}

// Base returns the embedded model itself. Promoted through embedding so
// any row type satisfies this part of Modeler for free.
func (m *Model) Base() *Model { return m }

// Defaults returns no default values. Row types with insert defaults
// shadow this.
func (m *Model) Defaults() ValueMap { return nil }

// ID returns the row identifier, or NoID for an unpersisted instance.
func (m *Model) ID() int64 { return m.id }

// SetID assigns the identifier. Not part of the dirty set: the identifier
// is written by the store, never as a data column.
func (m *Model) SetID(id int64) { m.id = id }

// ClearID resets the instance to unpersisted.
func (m *Model) ClearID() { m.id = NoID }

func (m *Model) set(name string, v any) {
	if m.values == nil {
		m.values = make(ValueMap)
	}
	if m.dirty == nil {
		m.dirty = make(ValueMap)
	}
	m.values[name] = v
	m.dirty[name] = v
}

// load records a value read from storage without marking it dirty.
func (m *Model) load(name string, v any) {
	if m.values == nil {
		m.values = make(ValueMap)
	}
	m.values[name] = v
}

func (m *Model) SetString(p Property, v string)   { m.set(p.Name(), v) }
func (m *Model) SetInt64(p Property, v int64)     { m.set(p.Name(), v) }
func (m *Model) SetFloat64(p Property, v float64) { m.set(p.Name(), v) }
func (m *Model) SetBool(p Property, v bool)       { m.set(p.Name(), v) }
func (m *Model) SetBytes(p Property, v []byte)    { m.set(p.Name(), v) }

// Clear forgets any known or pending value for the property.
func (m *Model) Clear(p Property) {
	delete(m.values, p.Name())
	delete(m.dirty, p.Name())
}

// Has reports whether a value for the property is known to this instance.
func (m *Model) Has(p Property) bool {
	_, ok := m.values[p.Name()]
	return ok
}

// Value returns the raw value for the property and whether it is known.
func (m *Model) Value(p Property) (any, bool) {
	v, ok := m.values[p.Name()]
	return v, ok
}

// String returns the property's value, or "" when unset.
func (m *Model) String(p Property) string {
	v, _ := m.values[p.Name()].(string)
	return v
}

// Int64 returns the property's value, or 0 when unset.
func (m *Model) Int64(p Property) int64 {
	v, _ := m.values[p.Name()].(int64)
	return v
}

// Float64 returns the property's value, or 0 when unset.
func (m *Model) Float64(p Property) float64 {
	v, _ := m.values[p.Name()].(float64)
	return v
}

// Bool returns the property's value, or false when unset.
func (m *Model) Bool(p Property) bool {
	v, _ := m.values[p.Name()].(bool)
	return v
}

// Bytes returns the property's value, or nil when unset.
func (m *Model) Bytes(p Property) []byte {
	v, _ := m.values[p.Name()].([]byte)
	return v
}

// IsDirty reports whether any value changed since load or last save.
func (m *Model) IsDirty() bool { return len(m.dirty) > 0 }

// SetValues returns a copy of the dirty set: exactly the columns a
// single-row update would write.
func (m *Model) SetValues() ValueMap { return m.dirty.Clone() }

// MergedValues returns the map an insert writes: the supplied defaults
// overlaid with the dirty set. Explicitly set values win over defaults.
func (m *Model) MergedValues(defaults ValueMap) ValueMap {
	merged := defaults.Clone()
	if merged == nil {
		merged = make(ValueMap, len(m.dirty))
	}
	for k, v := range m.dirty {
		merged[k] = v
	}
	return merged
}

// MarkSaved clears the dirty set. Called only after a successful write; a
// subsequent persist with no intervening setter calls is then a no-op.
func (m *Model) MarkSaved() { m.dirty = nil }

// CopyFrom replaces this instance's state with a deep copy of src. Used to
// build the snapshot handed to update listeners.
func (m *Model) CopyFrom(src *Model) {
	m.id = src.id
	m.values = src.values.Clone()
	m.dirty = src.dirty.Clone()
}

// EqualsByID reports identifier equality between two persisted instances.
// Two unpersisted instances are never equal by identifier.
func (m *Model) EqualsByID(other *Model) bool {
	return m.id != NoID && m.id == other.id
}
