package searchql

import (
	"strings"

	"github.com/veldtlab/searchql/domain"
	"github.com/veldtlab/searchql/schema"
)

// Complete proposes continuations for a partially typed expression.
// Suggestions substitute the ending clause in place, so each one is
// text the caller can swap in for the whole input and keep typing.
// The result is empty when nothing useful can be suggested; completion
// never fails, not even on input Parse would reject.
func (p *Parser) Complete(input string) []string {
	if p.registry.Len() == 0 {
		return nil
	}
	node, err := p.parseBalanced(input)
	if err != nil {
		return nil
	}

	ending, depth := endingClause(node)
	deep := depth - trailingClosers(input)
	if deep < 0 {
		deep = 0
	}

	var out []string
	if ending != nil {
		out = append(out, p.valueSuggestions(node, ending, deep)...)
	}

	// After a space or a fresh ":" the user is in value position, so
	// field names would be wrong there.
	if strings.HasSuffix(input, " ") || strings.HasSuffix(input, ":") {
		return out
	}

	prefix, ok := fieldPrefix(ending)
	if !ok {
		return out
	}
	for _, field := range p.registry.MatchPrefix(prefix) {
		repl := emptyClause(field)
		if node == nil {
			out = append(out, p.Serialize(repl))
			continue
		}
		out = append(out, trimDepth(p.Serialize(replaceEnding(node, repl)), deep))
	}
	return out
}

// parseBalanced runs the forward pipeline with structural tolerance:
// quotes heal as in Parse, stray closing parentheses are dropped, and
// missing ones are appended. Mid-expression input still yields a tree
// to anchor suggestions on.
func (p *Parser) parseBalanced(input string) (domain.Node, error) {
	tokens, err := tokenize(input)
	if err != nil {
		tokens, err = tokenize(input + `"`)
		if err != nil {
			return nil, err
		}
	}
	tokens = mergeOperators(tokens)

	depth := 0
	balanced := make([]token, 0, len(tokens)+1)
	for _, t := range tokens {
		switch {
		case t.isSymbol("("):
			depth++
		case t.isSymbol(")"):
			if depth == 0 {
				continue
			}
			depth--
		}
		balanced = append(balanced, t)
	}
	for ; depth > 0; depth-- {
		balanced = append(balanced, token{kind: tokenSymbol, text: ")"})
	}
	return p.pipeline(balanced)
}

// fieldPrefix decides whether field names may be suggested and what
// typed text they must extend. A full-text fragment is an unfinished
// field name; an empty tree accepts any field; a clause that already
// carries a field is past naming.
func fieldPrefix(ending *domain.Clause) (string, bool) {
	if ending == nil {
		return "", true
	}
	if ending.Path != recName {
		return "", false
	}
	if s, ok := ending.Value.(string); ok {
		return unlikify(s), true
	}
	return "", true
}

// valueSuggestions completes the ending clause's value for field types
// with an enumerable domain.
func (p *Parser) valueSuggestions(node domain.Node, ending *domain.Clause, deep int) []string {
	name := strings.TrimSuffix(ending.Path, "."+recName)
	field, ok := p.registry.Get(name)
	if !ok {
		return nil
	}

	if field.Type == schema.TypeReference {
		return p.targetSuggestions(node, ending, field, deep)
	}

	var candidates []any
	switch {
	case field.Type == schema.TypeBoolean:
		candidates = []any{true, false}
	case field.Type.HasSelection():
		for _, opt := range field.Selection {
			candidates = append(candidates, opt.Key)
		}
	default:
		return nil
	}

	list, isList := ending.Value.([]any)
	prefix := ""
	if isList {
		if len(list) > 0 {
			prefix = p.format(list[len(list)-1], field)
		}
	} else if ending.Value != nil {
		prefix = p.format(ending.Value, field)
	}

	var out []string
	for _, cand := range candidates {
		text := p.format(cand, field)
		if prefix != "" && !strings.HasPrefix(strings.ToLower(text), strings.ToLower(prefix)) {
			continue
		}
		repl := &domain.Clause{Path: ending.Path, Op: ending.Op, Target: ending.Target}
		if isList {
			values := make([]any, len(list))
			copy(values, list)
			if len(values) == 0 {
				values = append(values, cand)
			} else {
				values[len(values)-1] = cand
			}
			repl.Value = values
		} else {
			repl.Value = cand
		}
		out = append(out, trimDepth(p.Serialize(replaceEnding(node, repl)), deep))
	}
	return out
}

// targetSuggestions completes the relation part of a reference value,
// leaving the user at "Label,". A clause that already carries a target
// is past the enumerable part.
func (p *Parser) targetSuggestions(node domain.Node, ending *domain.Clause, field schema.Field, deep int) []string {
	if ending.Target != "" {
		return nil
	}
	prefix := ""
	if s, ok := ending.Value.(string); ok {
		prefix = unlikify(s)
	}

	var out []string
	for _, opt := range field.Selection {
		if prefix != "" && !strings.HasPrefix(strings.ToLower(opt.Label), strings.ToLower(prefix)) {
			continue
		}
		repl := &domain.Clause{
			Path:   field.Name + "." + recName,
			Op:     domain.OpILike,
			Value:  "%",
			Target: opt.Key,
		}
		out = append(out, trimDepth(p.Serialize(replaceEnding(node, repl)), deep))
	}
	return out
}

// emptyClause is the default-operator, empty-value form of a field,
// the shape a suggestion leaves the user to fill in.
func emptyClause(field schema.Field) *domain.Clause {
	op := defaultOp(field.Type)
	switch op {
	case domain.OpILike:
		path := field.Name
		if field.Type.IsRelational() {
			path += "." + recName
		}
		return &domain.Clause{Path: path, Op: op, Value: "%"}
	case domain.OpIn:
		return &domain.Clause{Path: field.Name, Op: op, Value: []any{}}
	}
	return &domain.Clause{Path: field.Name, Op: op}
}

// endingClause finds the rightmost leaf and how many parenthesized
// levels deep it sits when serialized. The root junction itself adds
// no parentheses.
func endingClause(n domain.Node) (*domain.Clause, int) {
	switch t := n.(type) {
	case *domain.Clause:
		return t, 0
	case *domain.Junction:
		if len(t.Children) == 0 {
			return nil, 0
		}
		last := t.Children[len(t.Children)-1]
		c, d := endingClause(last)
		if c == nil {
			return nil, 0
		}
		if _, ok := last.(*domain.Junction); ok {
			d++
		}
		return c, d
	}
	return nil, 0
}

// replaceEnding returns a copy of the tree with the rightmost leaf
// substituted.
func replaceEnding(n domain.Node, repl domain.Node) domain.Node {
	j, ok := n.(*domain.Junction)
	if !ok || len(j.Children) == 0 {
		return repl
	}
	children := make([]domain.Node, len(j.Children))
	copy(children, j.Children)
	last := len(children) - 1
	children[last] = replaceEnding(children[last], repl)
	return &domain.Junction{Op: j.Op, Children: children}
}

// trailingClosers counts the ")" already typed at the end of the
// input, ignoring trailing spaces.
func trailingClosers(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c == ' ' || c == '\t' {
			continue
		}
		if c != ')' {
			break
		}
		n++
	}
	return n
}

// trimDepth strips closing parentheses a suggestion would add beyond
// the levels the user has already closed, keeping each suggestion an
// open prefix like the input itself.
func trimDepth(s string, deep int) string {
	for ; deep > 0; deep-- {
		t := strings.TrimRight(s, " ")
		if !strings.HasSuffix(t, ")") {
			break
		}
		s = strings.TrimSuffix(t, ")")
	}
	return s
}
