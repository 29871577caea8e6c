package domain

import (
	"strconv"
	"strings"
	"time"
)

// comparison operators shared by both SQL dialects.
var sqlComparisons = map[Op]string{
	OpEq:        "=",
	OpNotEq:     "<>",
	OpLess:      "<",
	OpGreater:   ">",
	OpLessEq:    "<=",
	OpGreaterEq: ">=",
	OpILike:     "ILIKE",
	OpNotILike:  "NOT ILIKE",
}

// DuckDBEncoder translates filter trees into DuckDB WHERE-clause text.
// Values are rendered as inline literals, so the output can be embedded
// directly in a query.
//
// Encode returns an empty string for nodes it cannot translate. An OR
// junction with any untranslatable child is dropped entirely, because a
// partial OR would widen the result set. An AND junction keeps its
// translatable children, which only loosens the filter. The caller is
// expected to apply the full filter tree to whatever rows come back.
type DuckDBEncoder struct {
	opts *EncoderOptions
}

// NewDuckDBEncoder creates a DuckDB encoder. Pass nil options to encode
// clause paths as column names directly.
func NewDuckDBEncoder(opts *EncoderOptions) *DuckDBEncoder {
	if opts == nil {
		opts = &EncoderOptions{}
	}
	return &DuckDBEncoder{opts: opts}
}

// Encode returns the SQL condition for the node, or "" if the node
// cannot be expressed.
func (e *DuckDBEncoder) Encode(node Node) string {
	switch n := node.(type) {
	case nil:
		return ""
	case *Clause:
		return e.encodeClause(n)
	case *Junction:
		return e.encodeJunction(n)
	default:
		return ""
	}
}

func (e *DuckDBEncoder) encodeJunction(j *Junction) string {
	parts := make([]string, 0, len(j.Children))
	for _, child := range j.Children {
		part := e.Encode(child)
		if part == "" {
			if j.Op == BoolOr {
				return ""
			}
			continue
		}
		parts = append(parts, part)
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, ") "+string(j.Op)+" (") + ")"
}

func (e *DuckDBEncoder) encodeClause(c *Clause) string {
	if c.Target != "" {
		// Reference targets need a join against the target table,
		// which a single WHERE fragment cannot express.
		return ""
	}
	column := e.opts.column(c.Path)

	if c.Op.IsList() {
		return e.encodeList(column, c)
	}

	if c.Value == nil {
		switch c.Op {
		case OpEq:
			return column + " IS NULL"
		case OpNotEq:
			return column + " IS NOT NULL"
		}
		return ""
	}

	op, ok := sqlComparisons[c.Op]
	if !ok {
		return ""
	}
	value := formatValue(c.Value)
	if value == "" {
		return ""
	}
	return column + " " + op + " " + value
}

func (e *DuckDBEncoder) encodeList(column string, c *Clause) string {
	values, ok := c.Value.([]any)
	if !ok {
		return ""
	}
	// An empty list matches no row at all, so the condition collapses
	// to a boolean constant.
	if len(values) == 0 {
		if c.Op == OpNotIn {
			return "TRUE"
		}
		return "FALSE"
	}

	parts := make([]string, 0, len(values))
	for _, v := range values {
		part := formatValue(v)
		if part == "" {
			return ""
		}
		parts = append(parts, part)
	}

	op := "IN"
	if c.Op == OpNotIn {
		op = "NOT IN"
	}
	return column + " " + op + " (" + strings.Join(parts, ", ") + ")"
}

// formatValue renders a literal for embedding in SQL text. Returns ""
// for values that have no literal form.
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return quoteLiteral(v)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return formatTimeValue(v)
	default:
		return ""
	}
}

// formatTimeValue picks the literal form from the shape of the value.
// A zero year means a clock-only value, a zero clock means a calendar
// date, anything else is a full timestamp.
func formatTimeValue(v time.Time) string {
	if v.Year() == 0 {
		return "TIME '" + v.Format("15:04:05") + "'"
	}
	if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
		return "DATE '" + v.Format("2006-01-02") + "'"
	}
	return "TIMESTAMP '" + v.Format("2006-01-02 15:04:05") + "'"
}
