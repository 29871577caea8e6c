package searchql

import (
	"strings"

	"github.com/veldtlab/searchql/domain"
	"github.com/veldtlab/searchql/schema"
)

// Serialize renders a filter tree back into canonical expression text.
// Parsing the result yields the same tree again, so the text form can
// stand in for the structure in an editable search entry.
func (p *Parser) Serialize(node domain.Node) string {
	switch n := node.(type) {
	case *domain.Clause:
		return p.serializeClause(n)
	case *domain.Junction:
		sep := " & "
		if n.Op == domain.BoolOr {
			sep = " | "
		}
		parts := make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			s := p.Serialize(child)
			if s == "" {
				continue
			}
			// A boolean child keeps its parentheses so round-tripping
			// never reorders evaluation.
			if _, ok := child.(*domain.Junction); ok {
				s = "(" + s + ")"
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, sep)
	}
	return ""
}

func (p *Parser) serializeClause(c *domain.Clause) string {
	// A full-text clause renders as the bare word it came from.
	if c.Path == recName && c.Op == domain.OpILike {
		if s, ok := c.Value.(string); ok {
			return quoteValue(unlikify(s))
		}
	}

	name := strings.TrimSuffix(c.Path, "."+recName)
	field, known := p.registry.Get(name)
	if !known {
		field = schema.Field{Name: name, Label: c.Path, Type: schema.TypeChar}
	}
	label := quoteValue(field.Label)

	if _, isList := c.Value.([]any); isList || c.Op.IsList() {
		return label + ": " + p.renderList(c, field)
	}

	value := p.format(c.Value, field)
	var opText string
	switch {
	case c.Op == defaultOp(field.Type):
		if c.Op == domain.OpILike {
			if u := unlikify(value); u != value {
				value = u
			} else if value != "" {
				// The value carries its own pattern; a bare "=" maps
				// back to a pattern match on text fields.
				opText = "= "
			}
		}
	case c.Op == domain.OpNotILike:
		if u := unlikify(value); u != value {
			opText = "! "
			value = u
		} else {
			opText = "!= "
		}
	case c.Op == domain.OpILike:
		opText = "= "
	default:
		opText = string(c.Op) + " "
	}

	if c.Target != "" {
		value = targetLabel(field, c.Target) + "," + value
	}
	return label + ": " + opText + quoteValue(value)
}

// renderList joins list values with ";". The "in" operators have no
// written form: the list shape itself implies them, so only negation
// needs a marker. An explicit "="/"!=" set comparison on a
// multiselection renders its operator literally.
func (p *Parser) renderList(c *domain.Clause, field schema.Field) string {
	values, ok := c.Value.([]any)
	if !ok {
		values = []any{c.Value}
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = quoteValue(p.format(v, field))
	}
	joined := strings.Join(parts, ";")

	switch c.Op {
	case domain.OpIn:
		return joined
	case domain.OpNotIn:
		return "! " + joined
	}
	return string(c.Op) + " " + joined
}

// targetLabel maps a reference target key back to its selection label.
func targetLabel(field schema.Field, key string) string {
	for _, opt := range field.Selection {
		if opt.Key == key {
			return opt.Label
		}
	}
	return key
}

// unlikify strips the implicit substring markers added by likify. A
// value carrying any further wildcard is the user's own pattern and
// comes back unchanged.
func unlikify(s string) string {
	if s == "%" {
		return ""
	}
	if len(s) >= 2 && strings.HasPrefix(s, "%") && strings.HasSuffix(s, "%") {
		if inner := s[1 : len(s)-1]; !strings.ContainsAny(inner, "%_") {
			return inner
		}
	}
	return s
}

// quoteValue wraps text in quotes when the tokenizer would otherwise
// split it, escaping embedded quotes and backslashes.
func quoteValue(s string) string {
	if s == "" {
		return ""
	}
	if s == "&" || s == "|" {
		return `"` + s + `"`
	}
	if !strings.ContainsAny(s, ":;()<>=!\"\\ \t\n\r") {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
