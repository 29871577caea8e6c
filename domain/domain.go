// Package domain defines the filter trees the searchql compiler produces
// and the codecs that move them out of process.
//
// A tree is either a single Clause or a Junction combining subtrees with
// AND/OR. Trees cross process boundaries as JSON (Encode/Decode) using
// nested arrays:
//
//	["AND",["name","ilike","%John%"],["age",">",30]]
//
// Two SQL encoders turn trees into WHERE-clause bodies: DuckDBEncoder
// inlines literals, PostgresEncoder binds $n placeholder arguments.
package domain

// Op is a clause comparison operator.
type Op string

const (
	OpEq        Op = "="
	OpNotEq     Op = "!="
	OpLess      Op = "<"
	OpGreater   Op = ">"
	OpLessEq    Op = "<="
	OpGreaterEq Op = ">="
	OpILike     Op = "ilike"
	OpNotILike  Op = "not ilike"
	OpIn        Op = "in"
	OpNotIn     Op = "not in"
)

// Negate returns the negated form of the operator: ilike/not ilike,
// =/!=, in/not in, and the order comparisons swap. Unknown operators
// return unchanged.
func (o Op) Negate() Op {
	switch o {
	case OpEq:
		return OpNotEq
	case OpNotEq:
		return OpEq
	case OpILike:
		return OpNotILike
	case OpNotILike:
		return OpILike
	case OpIn:
		return OpNotIn
	case OpNotIn:
		return OpIn
	case OpLess:
		return OpGreaterEq
	case OpGreaterEq:
		return OpLess
	case OpGreater:
		return OpLessEq
	case OpLessEq:
		return OpGreater
	}
	return o
}

// IsNegative reports whether the operator is one of the negated forms.
func (o Op) IsNegative() bool {
	switch o {
	case OpNotEq, OpNotILike, OpNotIn:
		return true
	}
	return false
}

// IsList reports whether the operator compares against a list value.
func (o Op) IsList() bool {
	return o == OpIn || o == OpNotIn
}

// Valid reports whether the operator is one of the canonical set.
func (o Op) Valid() bool {
	switch o {
	case OpEq, OpNotEq, OpLess, OpGreater, OpLessEq, OpGreaterEq,
		OpILike, OpNotILike, OpIn, OpNotIn:
		return true
	}
	return false
}

// BoolOp joins the children of a Junction.
type BoolOp string

const (
	BoolAnd BoolOp = "AND"
	BoolOr  BoolOp = "OR"
)

// Node is a filter tree: either a *Clause leaf or a *Junction combining
// subtrees. The set of implementations is closed.
type Node interface {
	nodeMarker()
}

// Clause is a single field comparison.
type Clause struct {
	// Path is the dotted field path. Relational fields carry a
	// ".rec_name" suffix addressing the related record's display name.
	Path string

	// Op is the comparison operator.
	Op Op

	// Value is the typed comparison value: a scalar (string, int64,
	// float64, bool, time.Time) or a []any list for in/not in.
	Value any

	// Target is the related model key for reference fields, empty
	// otherwise.
	Target string
}

func (*Clause) nodeMarker() {}

// Junction combines child subtrees with a boolean connective.
type Junction struct {
	Op       BoolOp
	Children []Node
}

func (*Junction) nodeMarker() {}

// NewClause builds a comparison leaf.
func NewClause(path string, op Op, value any) *Clause {
	return &Clause{Path: path, Op: op, Value: value}
}

// And combines subtrees conjunctively. Nil children are dropped.
func And(children ...Node) *Junction {
	return &Junction{Op: BoolAnd, Children: compact(children)}
}

// Or combines subtrees disjunctively. Nil children are dropped.
func Or(children ...Node) *Junction {
	return &Junction{Op: BoolOr, Children: compact(children)}
}

func compact(children []Node) []Node {
	kept := make([]Node, 0, len(children))
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return kept
}

// Simplify collapses single-child junctions, drops nil and empty
// children, and returns nil for an empty tree. Clauses pass through
// unchanged.
func Simplify(n Node) Node {
	j, ok := n.(*Junction)
	if !ok {
		return n
	}
	children := make([]Node, 0, len(j.Children))
	for _, c := range j.Children {
		if s := Simplify(c); s != nil {
			children = append(children, s)
		}
	}
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	}
	return &Junction{Op: j.Op, Children: children}
}
