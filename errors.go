package searchql

import "errors"

// Standard errors returned by the searchql package.
var (
	// ErrMissingRegistry indicates Config validation failed.
	ErrMissingRegistry = errors.New("searchql: registry is required")

	// ErrUnterminatedQuote indicates a quoted string that stayed open
	// even after the single self-heal retry.
	ErrUnterminatedQuote = errors.New("searchql: unterminated quoted string")

	// ErrUnbalancedParen indicates parentheses that do not pair up.
	// Unlike quotes, parentheses are never healed.
	ErrUnbalancedParen = errors.New("searchql: unbalanced parentheses")

	// ErrNestingTooDeep indicates parenthetical nesting beyond MaxDepth.
	ErrNestingTooDeep = errors.New("searchql: expression nesting too deep")
)
