package dao

import (
	"strconv"
	"strings"
)

// Order represents a sort key for a query.
// It is a sealed value type constructed via Asc and Desc.
type Order struct {
	prop Property
	desc bool
}

// Asc sorts ascending by the property.
func Asc(p Property) Order { return Order{prop: p} }

// Desc sorts descending by the property.
func Desc(p Property) Order { return Order{prop: p, desc: true} }

// Query composes a selection: target table, selected properties, criteria
// and ordering/limit modifiers. Built incrementally by the caller and
// consumed once by a DAO. Selection order is preserved; it defines the
// cursor's column order. A query never mutates during execution: the DAO
// supplies its own table as a fallback when From was not called.
type Query struct {
	table   *Table
	props   []Property
	where   []Criterion
	orderBy []Order
	limit   int
	offset  int
}

// Select starts a query over the given properties. With no properties the
// executing DAO selects its table's full property list, identifier first.
func Select(props ...Property) *Query {
	return &Query{props: props}
}

// From sets the target table.
func (q *Query) From(t *Table) *Query {
	q.table = t
	return q
}

// Where adds criteria to the query. Multiple criteria are conjoined.
func (q *Query) Where(criteria ...Criterion) *Query {
	q.where = append(q.where, criteria...)
	return q
}

// OrderBy adds sort keys to the query.
func (q *Query) OrderBy(orders ...Order) *Query {
	q.orderBy = append(q.orderBy, orders...)
	return q
}

// Limit caps the number of returned rows. Zero means no limit.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Offset skips the first n rows. Only rendered together with a limit.
func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

// SQL renders the statement. Fails with ErrNoTableSet unless From was
// called.
func (q *Query) SQL() (string, error) {
	stmt, _, err := q.build(nil)
	return stmt, err
}

// build renders the statement against the query's table, or fallback when
// the query has none, and returns the effective ordered selection.
func (q *Query) build(fallback *Table) (string, []Property, error) {
	table := q.table
	if table == nil {
		table = fallback
	}
	if table == nil {
		return "", nil, ErrNoTableSet
	}
	props := q.props
	if len(props) == 0 {
		props = table.Properties()
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	for i, p := range props {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name())
	}
	b.WriteString(" FROM ")
	b.WriteString(table.Name())

	if where := conjoin(q.where); !where.isZero() {
		b.WriteString(" WHERE ")
		b.WriteString(where.SQL())
	}
	if len(q.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range q.orderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(o.prop.Name())
			if o.desc {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
		}
	}
	if q.limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.limit))
		if q.offset > 0 {
			b.WriteString(" OFFSET ")
			b.WriteString(strconv.Itoa(q.offset))
		}
	}
	return b.String(), props, nil
}

// conjoin folds a criteria list into one criterion, skipping zero values.
func conjoin(criteria []Criterion) Criterion {
	live := make([]Criterion, 0, len(criteria))
	for _, c := range criteria {
		if !c.isZero() {
			live = append(live, c)
		}
	}
	switch len(live) {
	case 0:
		return Criterion{}
	case 1:
		return live[0]
	default:
		return And(live...)
	}
}
