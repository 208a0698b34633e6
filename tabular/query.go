/*
query.go - Structured query values for the table service

PURPOSE:
  Represents one planned query as a value: table name, conjunctive filters,
  one optional disjunction, ordering, and a row limit. Builders return copies,
  so a base query can be branched without aliasing surprises.

WHY STRUCTURED FILTERS:
  The disjunctive filter ("currency_pair = X OR currency_pair = Y") is built
  from (column, value) pairs and translated to the backend's native form with
  placeholders. Caller input (currency codes) is never spliced into filter
  text, which closes the injection hole a textual or-filter would open.

SEE ALSO:
  - types.go: Service contract that executes these queries
  - adapter.go: conditional filter/order application based on live schema
*/
package tabular

// Op identifies a filter operator.
type Op string

const (
	// OpEq is column = value.
	OpEq Op = "eq"
	// OpIn is column IN (values...).
	OpIn Op = "in"
)

// Cond is a single filter condition.
type Cond struct {
	Column string
	Op     Op
	Value  any   // for OpEq
	Values []any // for OpIn
}

// Disjunct is one alternative of an or-filter: column = value.
type Disjunct struct {
	Column string
	Value  any
}

// Order is an order-by term.
type Order struct {
	Column string
	Desc   bool
}

// Query is one planned query against a single table.
// All Conds are ANDed together; AnyOf is a single ORed disjunction that is
// ANDed with the rest. LimitN of 0 means no limit.
type Query struct {
	Table   string
	Conds   []Cond
	AnyOf   []Disjunct
	OrderBy []Order
	LimitN  int
}

// NewQuery starts a query against a table.
func NewQuery(table string) Query {
	return Query{Table: table}
}

// Eq adds an equality filter.
func (q Query) Eq(column string, value any) Query {
	q.Conds = append(copyConds(q.Conds), Cond{Column: column, Op: OpEq, Value: value})
	return q
}

// In adds an inclusion filter. An empty value set matches nothing.
func (q Query) In(column string, values ...any) Query {
	q.Conds = append(copyConds(q.Conds), Cond{Column: column, Op: OpIn, Values: values})
	return q
}

// Any adds a disjunction of column/value equality pairs.
// Calling Any twice replaces the previous disjunction; one per query.
func (q Query) Any(alternatives ...Disjunct) Query {
	q.AnyOf = alternatives
	return q
}

// Order appends an order-by term.
func (q Query) Order(column string, desc bool) Query {
	dup := make([]Order, len(q.OrderBy), len(q.OrderBy)+1)
	copy(dup, q.OrderBy)
	q.OrderBy = append(dup, Order{Column: column, Desc: desc})
	return q
}

// Limit caps the number of rows returned.
func (q Query) Limit(n int) Query {
	q.LimitN = n
	return q
}

func copyConds(conds []Cond) []Cond {
	dup := make([]Cond, len(conds), len(conds)+1)
	copy(dup, conds)
	return dup
}
