package searchql

import (
	"errors"
	"strings"
)

// lexState tracks what the tokenizer is in the middle of reading.
type lexState int

const (
	lexWhitespace lexState = iota
	lexWord
	lexQuoted
	lexEscape
)

// errUnterminated signals an open quoted string at end of input. Parse
// retries once with a synthetic closing quote before surfacing
// ErrUnterminatedQuote.
var errUnterminated = errors.New("no closing quotation")

// isDelimiter reports whether r ends a word and stands as its own token.
// Everything else printable, including "&", "|", "%", "_", "," and ".",
// is word material.
func isDelimiter(r rune) bool {
	switch r {
	case ':', ';', '(', ')', '<', '>', '=', '!':
		return true
	}
	return false
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// tokenize splits an expression into word, quoted, and symbol tokens.
// Empty input yields no tokens.
func tokenize(input string) ([]token, error) {
	var (
		tokens []token
		word   strings.Builder
		state  = lexWhitespace
	)

	flush := func(kind tokenKind) {
		tokens = append(tokens, token{kind: kind, text: word.String()})
		word.Reset()
	}

	for _, r := range input {
		switch state {
		case lexWhitespace:
			switch {
			case isSpace(r):
			case r == '"':
				state = lexQuoted
			case isDelimiter(r):
				tokens = append(tokens, token{kind: tokenSymbol, text: string(r)})
			default:
				word.WriteRune(r)
				state = lexWord
			}

		case lexWord:
			switch {
			case isSpace(r):
				flush(tokenWord)
				state = lexWhitespace
			case r == '"':
				flush(tokenWord)
				state = lexQuoted
			case isDelimiter(r):
				flush(tokenWord)
				tokens = append(tokens, token{kind: tokenSymbol, text: string(r)})
				state = lexWhitespace
			default:
				word.WriteRune(r)
			}

		case lexQuoted:
			switch r {
			case '\\':
				state = lexEscape
			case '"':
				flush(tokenQuoted)
				state = lexWhitespace
			default:
				word.WriteRune(r)
			}

		case lexEscape:
			word.WriteRune(r)
			state = lexQuoted
		}
	}

	switch state {
	case lexWord:
		flush(tokenWord)
	case lexQuoted, lexEscape:
		return nil, errUnterminated
	}
	return tokens, nil
}

// mergeOperators fuses adjacent symbol tokens into the two-character
// comparison operators "!=", "<=" and ">=". Quoted tokens never take
// part: `"<" "="` stays two values.
func mergeOperators(tokens []token) []token {
	if len(tokens) < 2 {
		return tokens
	}
	merged := make([]token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		cur := tokens[i]
		if cur.kind == tokenSymbol && i+1 < len(tokens) && tokens[i+1].isSymbol("=") {
			if _, ok := comparisonOps[cur.text+"="]; ok && cur.text != "=" {
				merged = append(merged, token{kind: tokenSymbol, text: cur.text + "="})
				i++
				continue
			}
		}
		merged = append(merged, cur)
	}
	return merged
}
