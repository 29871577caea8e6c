// Package searchql compiles free-form search box expressions into
// structured filter trees and back.
//
// The searchql package implements both directions of the mapping:
//   - Parsing a human-typed expression ("Name: John & Age: > 30") into a
//     filter tree that a query engine can evaluate
//   - Serializing a filter tree back into the canonical text form a user
//     would have typed
//   - Proposing completions for a partially typed expression
//
// # Quick Start
//
// Build a parser from a field registry and run an expression through it:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/veldtlab/searchql"
//	    "github.com/veldtlab/searchql/domain"
//	    "github.com/veldtlab/searchql/schema"
//	)
//
//	func main() {
//	    reg := schema.New(map[string]schema.Field{
//	        "name": {Label: "Name", Type: schema.TypeChar},
//	        "age":  {Label: "Age", Type: schema.TypeInteger},
//	    })
//
//	    parser, err := searchql.New(searchql.Config{Registry: reg})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    tree, err := parser.Parse("Name: John & Age: > 30")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    data, _ := domain.Encode(tree)
//	    fmt.Println(string(data)) // ["AND",["name","ilike","%John%"],["age",">",30]]
//	    fmt.Println(parser.Serialize(tree))
//	}
//
// # Expression Language
//
// An expression is a sequence of clauses joined by boolean connectives.
// A clause names a field by its label, optionally an operator, and a value:
//
//	Name: John                field "name", substring match
//	Name: ! John              negated substring match
//	Age: > 30                 explicit comparison
//	Age: 20..40               inclusive range
//	State: draft;open         multi-value membership
//	Company: Acme             relational search over the related record name
//	John                      bare words search the record display name
//
// OR (written "|") binds tighter than AND ("&"); adjacent clauses are
// implicitly joined by AND; parentheses group subexpressions. Quoted
// strings keep delimiters literal.
//
// # Field Registry
//
// Fields are looked up by their human label, case-insensitively. Relational
// fields flatten their related fields into dotted paths, so "Company.Name"
// addresses the name of the related company record. Registries are
// immutable; see the schema package for construction, YAML loading, Arrow
// schema import, and live reload.
//
// # Filter Trees
//
// The parser produces domain.Node values: clauses and boolean junctions.
// The domain package carries the JSON wire codec for handing a tree to an
// external execution engine and SQL encoders for the DuckDB and PostgreSQL
// dialects. The compiler itself never touches a database; the stores
// packages contain thin executors built on the encoders.
//
// # Error Handling
//
// Parse degrades instead of failing wherever a reasonable reading exists:
// unknown labels become full-text clauses, stray connectives are dropped,
// and an unterminated quote is healed once by appending the missing quote.
// Only structural problems are fatal: unbalanced parentheses
// (ErrUnbalancedParen), a quote that cannot be healed
// (ErrUnterminatedQuote), and nesting beyond Config.MaxDepth
// (ErrNestingTooDeep). Serialize and Complete never fail.
//
// # Logging
//
// Components accept a *slog.Logger and fall back to slog.Default().
// The pipeline logs degradations at debug level only.
package searchql
