package searchql

import (
	"fmt"
	"log/slog"

	"github.com/veldtlab/searchql/domain"
	"github.com/veldtlab/searchql/schema"
)

// Parser compiles search expressions against one registry snapshot.
// A parser is safe for concurrent use; to pick up a schema change,
// build a new one with WithRegistry and swap it in.
type Parser struct {
	registry *schema.Registry
	convert  ValueConverter
	format   ValueFormatter
	logger   *slog.Logger
	maxDepth int
}

// New creates a parser from the configuration.
func New(cfg Config) (*Parser, error) {
	if cfg.Registry == nil {
		return nil, ErrMissingRegistry
	}
	p := &Parser{
		registry: cfg.Registry,
		convert:  cfg.Convert,
		format:   cfg.Format,
		logger:   cfg.Logger,
		maxDepth: cfg.MaxDepth,
	}
	if p.convert == nil {
		p.convert = DefaultConverter
	}
	if p.format == nil {
		p.format = DefaultFormatter
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.maxDepth <= 0 {
		p.maxDepth = DefaultMaxDepth
	}
	return p, nil
}

// WithRegistry returns a parser bound to the given registry snapshot,
// keeping the receiver's hooks. The receiver is unchanged.
func (p *Parser) WithRegistry(r *schema.Registry) *Parser {
	clone := *p
	clone.registry = r
	return &clone
}

// Registry returns the snapshot the parser compiles against.
func (p *Parser) Registry() *schema.Registry {
	return p.registry
}

// Parse compiles an expression into a filter tree. Unknown field
// labels degrade to full-text search and a missing closing quote heals
// once, so the only failures are unbalanced parentheses, nesting past
// the configured depth, and a quote still open after healing. An empty
// expression yields a nil tree.
func (p *Parser) Parse(input string) (domain.Node, error) {
	tokens, err := tokenize(input)
	if err != nil {
		p.logger.Debug("healing unterminated quote", "input", input)
		tokens, err = tokenize(input + `"`)
		if err != nil {
			return nil, fmt.Errorf("parse: %w", ErrUnterminatedQuote)
		}
	}
	node, err := p.pipeline(mergeOperators(tokens))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return node, nil
}

// pipeline runs grouping, precedence resolution, and materialization
// over a merged token stream.
func (p *Parser) pipeline(tokens []token) (domain.Node, error) {
	items, err := parenthesize(tokens, p.maxDepth)
	if err != nil {
		return nil, err
	}
	return p.materialize(resolve(p.groupClauses(items))), nil
}
