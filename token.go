package searchql

import "github.com/veldtlab/searchql/domain"

// tokenKind classifies lexer output.
type tokenKind int

const (
	// tokenWord is a bare word: field label material, a value, or a
	// standalone "&"/"|" connective.
	tokenWord tokenKind = iota
	// tokenQuoted is a double-quoted literal. Quoting is the only
	// difference from a word: a quoted token never acts as a connective
	// and never merges into an operator.
	tokenQuoted
	// tokenSymbol is one of the single-character delimiters or a merged
	// comparison operator.
	tokenSymbol
)

type token struct {
	kind tokenKind
	text string
}

// isSymbol reports whether the token is the given delimiter or operator.
func (t token) isSymbol(text string) bool {
	return t.kind == tokenSymbol && t.text == text
}

// isValue reports whether the token can serve as clause value material.
func (t token) isValue() bool {
	return t.kind == tokenWord || t.kind == tokenQuoted
}

// isConnective reports whether the token is a standalone boolean
// connective word. "&" and "|" are ordinary word characters, so they
// only connect when they form a whole word on their own.
func (t token) isConnective(text string) bool {
	return t.kind == tokenWord && t.text == text
}

// comparisonOps maps written operator tokens to clause operators. The
// standalone "!" is handled separately: it negates the field's default
// operator instead of naming one.
var comparisonOps = map[string]domain.Op{
	"=":  domain.OpEq,
	"!=": domain.OpNotEq,
	"<":  domain.OpLess,
	">":  domain.OpGreater,
	"<=": domain.OpLessEq,
	">=": domain.OpGreaterEq,
}

// isOperator reports whether the token is written comparison-operator
// material, including the bare negation "!".
func (t token) isOperator() bool {
	if t.kind != tokenSymbol {
		return false
	}
	if t.text == "!" {
		return true
	}
	_, ok := comparisonOps[t.text]
	return ok
}
