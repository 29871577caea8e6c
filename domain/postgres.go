package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// PostgresEncoder translates filter trees into parameterized PostgreSQL
// conditions. Values are returned as a positional argument slice, one
// placeholder per value, so the output is safe to pass to a driver.
//
// Unlike the DuckDB encoder it is strict: any node it cannot translate
// is an error rather than a silent drop, because the caller has no way
// to re-check rows against the untranslated part.
type PostgresEncoder struct {
	opts *EncoderOptions
}

// NewPostgresEncoder creates a PostgreSQL encoder. Pass nil options to
// encode clause paths as column names directly.
func NewPostgresEncoder(opts *EncoderOptions) *PostgresEncoder {
	if opts == nil {
		opts = &EncoderOptions{}
	}
	return &PostgresEncoder{opts: opts}
}

// Encode returns the SQL condition and its arguments, numbered from $1.
// A nil node yields an empty condition and no arguments; callers should
// omit the WHERE clause in that case.
func (e *PostgresEncoder) Encode(node Node) (string, []any, error) {
	if node == nil {
		return "", nil, nil
	}
	c := &pgCompiler{opts: e.opts}
	cond, err := c.compile(node)
	if err != nil {
		return "", nil, err
	}
	return cond, c.args, nil
}

// pgCompiler accumulates positional arguments while walking the tree.
type pgCompiler struct {
	opts *EncoderOptions
	args []any
}

// placeholder appends a value and returns its positional marker.
func (c *pgCompiler) placeholder(v any) string {
	c.args = append(c.args, v)
	return "$" + strconv.Itoa(len(c.args))
}

func (c *pgCompiler) compile(node Node) (string, error) {
	switch n := node.(type) {
	case *Clause:
		return c.clause(n)
	case *Junction:
		return c.junction(n)
	default:
		return "", fmt.Errorf("encode: unsupported node %T", node)
	}
}

func (c *pgCompiler) junction(j *Junction) (string, error) {
	if len(j.Children) == 0 {
		return "", fmt.Errorf("encode: empty %s junction", j.Op)
	}
	parts := make([]string, 0, len(j.Children))
	for _, child := range j.Children {
		part, err := c.compile(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, ") "+string(j.Op)+" (") + ")", nil
}

func (c *pgCompiler) clause(cl *Clause) (string, error) {
	if cl.Target != "" {
		return "", fmt.Errorf("encode %q: reference target %q needs a join", cl.Path, cl.Target)
	}
	column := c.opts.column(cl.Path)

	if cl.Op.IsList() {
		return c.list(column, cl)
	}

	if cl.Value == nil {
		switch cl.Op {
		case OpEq:
			return column + " IS NULL", nil
		case OpNotEq:
			return column + " IS NOT NULL", nil
		}
		return "", fmt.Errorf("encode %q: operator %q does not accept null", cl.Path, cl.Op)
	}

	op, ok := sqlComparisons[cl.Op]
	if !ok {
		return "", fmt.Errorf("encode %q: unsupported operator %q", cl.Path, cl.Op)
	}
	return column + " " + op + " " + c.placeholder(cl.Value), nil
}

func (c *pgCompiler) list(column string, cl *Clause) (string, error) {
	values, ok := cl.Value.([]any)
	if !ok {
		return "", fmt.Errorf("encode %q: operator %q needs a list, got %T", cl.Path, cl.Op, cl.Value)
	}
	if len(values) == 0 {
		if cl.Op == OpNotIn {
			return "TRUE", nil
		}
		return "FALSE", nil
	}

	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, c.placeholder(v))
	}
	op := "IN"
	if cl.Op == OpNotIn {
		op = "NOT IN"
	}
	return column + " " + op + " (" + strings.Join(parts, ", ") + ")", nil
}
