package dao

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

type critKind int

const (
	critNone critKind = iota
	critCompare
	critNull
	critNotNull
	critIn
	critAnd
	critOr
	critNot
)

// Criterion is an immutable, composable boolean predicate over table
// columns. Leaves are built from properties (Eq, Gt, Like, ...); interior
// nodes come from And, Or and Not. Rendering via SQL is deterministic:
// the same tree always yields the same text.
type Criterion struct {
	kind  critKind
	prop  Property
	op    string
	value any
	list  []any
	subs  []Criterion
}

func compare(p Property, op string, v any) Criterion {
	return Criterion{kind: critCompare, prop: p, op: op, value: v}
}

// Eq matches rows whose column equals v.
func (p Property) Eq(v any) Criterion { return compare(p, "=", v) }

// Neq matches rows whose column differs from v.
func (p Property) Neq(v any) Criterion { return compare(p, "<>", v) }

// Gt matches rows whose column is greater than v.
func (p Property) Gt(v any) Criterion { return compare(p, ">", v) }

// Gte matches rows whose column is greater than or equal to v.
func (p Property) Gte(v any) Criterion { return compare(p, ">=", v) }

// Lt matches rows whose column is less than v.
func (p Property) Lt(v any) Criterion { return compare(p, "<", v) }

// Lte matches rows whose column is less than or equal to v.
func (p Property) Lte(v any) Criterion { return compare(p, "<=", v) }

// Like matches rows whose column matches the SQL pattern v.
func (p Property) Like(v string) Criterion { return compare(p, "LIKE", v) }

// In matches rows whose column equals any of the given values.
func (p Property) In(values ...any) Criterion {
	return Criterion{kind: critIn, prop: p, list: values}
}

// IsNull matches rows whose column is NULL.
func (p Property) IsNull() Criterion { return Criterion{kind: critNull, prop: p} }

// IsNotNull matches rows whose column is not NULL.
func (p Property) IsNotNull() Criterion { return Criterion{kind: critNotNull, prop: p} }

// And combines criteria so that all must hold.
func And(criteria ...Criterion) Criterion {
	return Criterion{kind: critAnd, subs: criteria}
}

// Or combines criteria so that at least one must hold.
func Or(criteria ...Criterion) Criterion {
	return Criterion{kind: critOr, subs: criteria}
}

// Not negates a criterion.
func Not(c Criterion) Criterion {
	return Criterion{kind: critNot, subs: []Criterion{c}}
}

func (c Criterion) isZero() bool { return c.kind == critNone }

// SQL renders the criterion as storage-engine filter text with literals
// inlined.
func (c Criterion) SQL() string {
	var b strings.Builder
	c.appendTo(&b)
	return b.String()
}

func (c Criterion) appendTo(b *strings.Builder) {
	switch c.kind {
	case critCompare:
		b.WriteString(c.prop.Name())
		b.WriteByte(' ')
		b.WriteString(c.op)
		b.WriteByte(' ')
		appendLiteral(b, c.value)
	case critNull:
		b.WriteString(c.prop.Name())
		b.WriteString(" IS NULL")
	case critNotNull:
		b.WriteString(c.prop.Name())
		b.WriteString(" IS NOT NULL")
	case critIn:
		b.WriteString(c.prop.Name())
		b.WriteString(" IN (")
		for i, v := range c.list {
			if i > 0 {
				b.WriteString(", ")
			}
			appendLiteral(b, v)
		}
		b.WriteByte(')')
	case critAnd, critOr:
		sep := " AND "
		if c.kind == critOr {
			sep = " OR "
		}
		b.WriteByte('(')
		for i, sub := range c.subs {
			if i > 0 {
				b.WriteString(sep)
			}
			sub.appendTo(b)
		}
		b.WriteByte(')')
	case critNot:
		b.WriteString("NOT (")
		c.subs[0].appendTo(b)
		b.WriteByte(')')
	}
}

func appendLiteral(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("NULL")
	case string:
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(x, "'", "''"))
		b.WriteByte('\'')
	case bool:
		if x {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	case int:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		b.WriteString(strconv.FormatInt(x, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case []byte:
		b.WriteString("X'")
		b.WriteString(hex.EncodeToString(x))
		b.WriteByte('\'')
	default:
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(fmt.Sprint(x), "'", "''"))
		b.WriteByte('\'')
	}
}
