package dao

// ColumnType represents the abstract storage type of a model property.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInt64
	TypeFloat64
	TypeBool
	TypeBlob
)

// Property describes a single named, typed column of a table.
// It is a sealed value type constructed via the *Property helper functions.
// Identity is (table name, column name); a zero Property is invalid.
type Property struct {
	name  string
	ctype ColumnType
	table string // set when the property is attached to a Table
}

func (p Property) Name() string      { return p.name }
func (p Property) Type() ColumnType  { return p.ctype }
func (p Property) TableName() string { return p.table }

// Same reports whether two properties name the same column of the same table.
func (p Property) Same(other Property) bool {
	return p.name == other.name && p.table == other.table
}

// TextProperty declares a string-valued column.
func TextProperty(name string) Property {
	return Property{name: name, ctype: TypeText}
}

// Int64Property declares a signed-integer column.
func Int64Property(name string) Property {
	return Property{name: name, ctype: TypeInt64}
}

// Float64Property declares a floating-point column.
func Float64Property(name string) Property {
	return Property{name: name, ctype: TypeFloat64}
}

// BoolProperty declares a boolean column, stored as 0/1.
func BoolProperty(name string) Property {
	return Property{name: name, ctype: TypeBool}
}

// BlobProperty declares a raw byte column.
func BlobProperty(name string) Property {
	return Property{name: name, ctype: TypeBlob}
}

// DefaultIDColumn is the identifier column name used unless a table
// overrides it with WithIDColumn.
const DefaultIDColumn = "_id"

// Table describes a model type's storage table: its name, its identifier
// property and the declared data properties. Immutable once constructed.
type Table struct {
	name  string
	id    Property
	props []Property
}

// TableOption adjusts how NewTable builds the descriptor.
type TableOption func(*Table)

// WithIDColumn overrides the identifier column name for the table.
func WithIDColumn(name string) TableOption {
	return func(t *Table) {
		t.id = Property{name: name, ctype: TypeInt64, table: t.name}
	}
}

// NewTable builds a table descriptor. The identifier property is implicit
// and must not appear in props.
func NewTable(name string, props []Property, opts ...TableOption) *Table {
	t := &Table{
		name: name,
		id:   Property{name: DefaultIDColumn, ctype: TypeInt64, table: name},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.props = make([]Property, len(props))
	for i, p := range props {
		p.table = name
		t.props[i] = p
	}
	return t
}

func (t *Table) Name() string { return t.name }

// ID returns the identifier property of the table.
func (t *Table) ID() Property { return t.id }

// Properties returns the full ordered property list, identifier first.
// The returned slice is a copy.
func (t *Table) Properties() []Property {
	all := make([]Property, 0, len(t.props)+1)
	all = append(all, t.id)
	all = append(all, t.props...)
	return all
}
