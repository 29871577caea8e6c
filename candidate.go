package searchql

import (
	"github.com/veldtlab/searchql/domain"
	"github.com/veldtlab/searchql/schema"
)

// candidate is one unit of a partially parsed expression. Each pass of
// the pipeline consumes one shape and emits another: parenthesize emits
// atoms and groups, grouping adds clause candidates, resolution folds
// everything into junction candidates.
type candidate interface {
	candidateNode()
}

// atom is a single unclassified token.
type atom struct {
	tok token
}

// group is a parenthesized span.
type group struct {
	items []candidate
}

// clauseCand is a clause-shaped run: field label, optional written
// operator, and captured value tokens. A ";" between values marks the
// candidate as a list even when only one value was captured.
type clauseCand struct {
	field  schema.Field
	opText string
	values []token
	isList bool
}

// junctionCand is a resolved boolean combination. grouped marks a
// junction that came from explicit parentheses; the resolver never
// extends a grouped junction with further operands.
type junctionCand struct {
	op       domain.BoolOp
	children []candidate
	grouped  bool
}

func (*atom) candidateNode()         {}
func (*group) candidateNode()        {}
func (*clauseCand) candidateNode()   {}
func (*junctionCand) candidateNode() {}

// parenthesize nests the flat token sequence by parentheses. Unbalanced
// input is fatal: repairing grouping would silently change boolean
// structure. Nesting past maxDepth is rejected for the same reason an
// unbounded recursion would be.
func parenthesize(tokens []token, maxDepth int) ([]candidate, error) {
	items, _, err := parenthesizeSpan(tokens, 0, maxDepth)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func parenthesizeSpan(tokens []token, depth, maxDepth int) ([]candidate, []token, error) {
	if depth > maxDepth {
		return nil, nil, ErrNestingTooDeep
	}

	var items []candidate
	for len(tokens) > 0 {
		tok := tokens[0]
		switch {
		case tok.isSymbol("("):
			inner, rest, err := parenthesizeSpan(tokens[1:], depth+1, maxDepth)
			if err != nil {
				return nil, nil, err
			}
			if len(rest) == 0 || !rest[0].isSymbol(")") {
				return nil, nil, ErrUnbalancedParen
			}
			items = append(items, &group{items: inner})
			tokens = rest[1:]
		case tok.isSymbol(")"):
			if depth == 0 {
				return nil, nil, ErrUnbalancedParen
			}
			return items, tokens, nil
		default:
			items = append(items, &atom{tok: tok})
			tokens = tokens[1:]
		}
	}
	if depth > 0 {
		return nil, nil, ErrUnbalancedParen
	}
	return items, nil, nil
}
