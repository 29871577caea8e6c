package searchql

import (
	"strings"

	"github.com/veldtlab/searchql/domain"
	"github.com/veldtlab/searchql/schema"
)

// recName is the implicit display-name field. Untargeted words search
// it, and relational comparisons are suffixed onto it so they match the
// related record's name rather than its identifier.
const recName = "rec_name"

// defaultOp is the operator an unwritten comparison resolves to.
func defaultOp(t schema.FieldType) domain.Op {
	switch {
	case t.IsTextual(), t.IsRelational(), t == schema.TypeReference:
		return domain.OpILike
	case t == schema.TypeMultiSelection:
		return domain.OpIn
	default:
		return domain.OpEq
	}
}

// resolveOp maps the written operator token to a clause operator. "!"
// negates the field's default operator instead of naming one.
func resolveOp(opText string, t schema.FieldType) domain.Op {
	switch opText {
	case "":
		return defaultOp(t)
	case "!":
		return defaultOp(t).Negate()
	}
	if op, ok := comparisonOps[opText]; ok {
		return op
	}
	return defaultOp(t)
}

// likify wraps a pattern-free value in substring markers. A value that
// already carries "%" or "_" is the user's own pattern and passes
// through untouched.
func likify(s string) string {
	if s == "" {
		return "%"
	}
	if strings.ContainsAny(s, "%_") {
		return s
	}
	return "%" + s + "%"
}

// materialize converts resolved candidates into the filter tree.
func (p *Parser) materialize(items []candidate) domain.Node {
	nodes := make([]domain.Node, 0, len(items))
	for _, it := range items {
		nodes = append(nodes, p.materializeCandidate(it))
	}
	return domain.Simplify(domain.And(nodes...))
}

func (p *Parser) materializeCandidate(c candidate) domain.Node {
	switch n := c.(type) {
	case *atom:
		if n.tok.kind == tokenSymbol {
			// Stray punctuation adds nothing to a search.
			return nil
		}
		return domain.NewClause(recName, domain.OpILike, likify(n.tok.text))
	case *group:
		return p.materialize(n.items)
	case *clauseCand:
		return p.materializeClause(n)
	case *junctionCand:
		kids := make([]domain.Node, 0, len(n.children))
		for _, child := range n.children {
			kids = append(kids, p.materializeCandidate(child))
		}
		if n.op == domain.BoolOr {
			return domain.Simplify(domain.Or(kids...))
		}
		return domain.Simplify(domain.And(kids...))
	}
	return nil
}

func (p *Parser) materializeClause(c *clauseCand) domain.Node {
	field := c.field
	op := resolveOp(c.opText, field.Type)

	if len(c.values) > 1 || c.isList {
		return p.listClause(c, op)
	}

	raw := ""
	if len(c.values) == 1 {
		raw = c.values[0].text
	}

	path := field.Name
	target := ""
	textual := field.Type.IsTextual()
	switch {
	case field.Type == schema.TypeReference:
		textual = true
		if key, rest, ok := splitTarget(field, raw); ok {
			path += "." + recName
			target = key
			raw = rest
		}
	case field.Type.IsRelational():
		path += "." + recName
		textual = true
	}

	// "20..40" on an ordered field is a closed interval, not a value.
	if op == domain.OpEq && field.Type.IsOrdered() {
		if lo, hi, ok := strings.Cut(raw, ".."); ok {
			return domain.And(
				domain.NewClause(path, domain.OpGreaterEq, p.convert(lo, field)),
				domain.NewClause(path, domain.OpLessEq, p.convert(hi, field)),
			)
		}
	}

	value := p.convert(raw, field)
	if s, ok := value.(string); ok && textual {
		op, value = textValue(op, s)
	}
	// A list operator always carries a list, even for a lone value.
	if op.IsList() {
		if value == nil {
			value = []any{}
		} else {
			value = []any{value}
		}
	}
	return &domain.Clause{Path: path, Op: op, Value: value, Target: target}
}

// textValue applies substring-marker handling to a text comparison. An
// explicit "="/"!=" over a value holding wildcards is really a pattern
// match, and a pattern-free ilike value gets wrapped.
func textValue(op domain.Op, raw string) (domain.Op, any) {
	switch op {
	case domain.OpEq:
		if strings.ContainsAny(raw, "%_") {
			return domain.OpILike, raw
		}
	case domain.OpNotEq:
		if strings.ContainsAny(raw, "%_") {
			return domain.OpNotILike, raw
		}
	case domain.OpILike, domain.OpNotILike:
		return op, likify(raw)
	}
	return op, raw
}

// listClause turns ";"-joined values into a list comparison. Any field
// other than a multiselection forces the operator to "in"/"not in"; a
// multiselection keeps whatever operator resolved, since its value is
// a set already.
func (p *Parser) listClause(c *clauseCand, op domain.Op) domain.Node {
	field := c.field
	values := make([]any, 0, len(c.values))
	for _, tok := range c.values {
		if v := p.convert(tok.text, field); v != nil {
			values = append(values, v)
		}
	}

	path := field.Name
	if field.Type.IsRelational() {
		path += "." + recName
	}
	if field.Type != schema.TypeMultiSelection {
		if op.IsNegative() {
			op = domain.OpNotIn
		} else {
			op = domain.OpIn
		}
	}
	return &domain.Clause{Path: path, Op: op, Value: values}
}

// splitTarget probes a reference field's selection for a value of the
// form "<RelationLabel>,<rest>". The label match is case-insensitive
// and must be terminated by the comma.
func splitTarget(field schema.Field, raw string) (key, rest string, ok bool) {
	for _, opt := range field.Selection {
		n := len(opt.Label)
		if len(raw) > n && raw[n] == ',' && strings.EqualFold(raw[:n], opt.Label) {
			return opt.Key, raw[n+1:], true
		}
	}
	return "", "", false
}
