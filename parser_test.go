package searchql

import (
	"errors"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/veldtlab/searchql/domain"
	"github.com/veldtlab/searchql/schema"
)

func testFields() map[string]schema.Field {
	return map[string]schema.Field{
		"name":       {Label: "Name", Type: schema.TypeChar},
		"age":        {Label: "Age", Type: schema.TypeInteger},
		"salary":     {Label: "Salary", Type: schema.TypeNumeric},
		"active":     {Label: "Active", Type: schema.TypeBoolean},
		"birthday":   {Label: "Birthday", Type: schema.TypeDate},
		"order_date": {Label: "Order Date", Type: schema.TypeDate},
		"company": {Label: "Company", Type: schema.TypeManyToOne, Relation: map[string]schema.Field{
			"code": {Label: "Code", Type: schema.TypeChar},
		}},
		"state": {Label: "State", Type: schema.TypeSelection, Selection: []schema.SelectionOption{
			{Key: "draft", Label: "Draft"},
			{Key: "done", Label: "Done"},
			{Key: "cancelled", Label: "Cancelled"},
		}},
		"tags": {Label: "Tags", Type: schema.TypeMultiSelection, Selection: []schema.SelectionOption{
			{Key: "urgent", Label: "Urgent"},
			{Key: "vip", Label: "VIP"},
		}},
		"origin": {Label: "Origin", Type: schema.TypeReference, Selection: []schema.SelectionOption{
			{Key: "sale.sale", Label: "Sale"},
			{Key: "purchase.purchase", Label: "Purchase"},
		}},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testParser(t *testing.T) *Parser {
	t.Helper()
	p, err := New(Config{
		Registry: schema.New(testFields()),
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestNewRequiresRegistry(t *testing.T) {
	_, err := New(Config{})
	if !errors.Is(err, ErrMissingRegistry) {
		t.Errorf("expected ErrMissingRegistry, got %v", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected domain.Node
	}{
		{
			name:     "plain word searches the record name",
			input:    "John",
			expected: domain.NewClause("rec_name", domain.OpILike, "%John%"),
		},
		{
			name:     "user wildcards pass through unwrapped",
			input:    "Jo%",
			expected: domain.NewClause("rec_name", domain.OpILike, "Jo%"),
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "empty group",
			input:    "()",
			expected: nil,
		},
		{
			name:     "stray punctuation",
			input:    ": ;",
			expected: nil,
		},
		{
			name:     "text clause",
			input:    "name: John",
			expected: domain.NewClause("name", domain.OpILike, "%John%"),
		},
		{
			name:     "labels match case-insensitively",
			input:    "NAME: John",
			expected: domain.NewClause("name", domain.OpILike, "%John%"),
		},
		{
			name:     "quoted value keeps its spaces",
			input:    `name: "John Smith"`,
			expected: domain.NewClause("name", domain.OpILike, "%John Smith%"),
		},
		{
			name:     "integer equality",
			input:    "Age: 30",
			expected: domain.NewClause("age", domain.OpEq, int64(30)),
		},
		{
			name:     "explicit comparison",
			input:    "age: > 30",
			expected: domain.NewClause("age", domain.OpGreater, int64(30)),
		},
		{
			name:     "merged comparison",
			input:    "age: >= 30",
			expected: domain.NewClause("age", domain.OpGreaterEq, int64(30)),
		},
		{
			name:     "written inequality",
			input:    "age: != 30",
			expected: domain.NewClause("age", domain.OpNotEq, int64(30)),
		},
		{
			name:     "bare negation negates the default operator",
			input:    "age: ! 30",
			expected: domain.NewClause("age", domain.OpNotEq, int64(30)),
		},
		{
			name:     "negated text clause",
			input:    "name: ! John",
			expected: domain.NewClause("name", domain.OpNotILike, "%John%"),
		},
		{
			name:     "stray negation outside a clause is dropped",
			input:    "! John",
			expected: domain.NewClause("rec_name", domain.OpILike, "%John%"),
		},
		{
			name:  "integer range expands to a conjunction",
			input: "age: 20..40",
			expected: domain.And(
				domain.NewClause("age", domain.OpGreaterEq, int64(20)),
				domain.NewClause("age", domain.OpLessEq, int64(40)),
			),
		},
		{
			name:  "date range",
			input: "birthday: 2024-01-01..2024-06-30",
			expected: domain.And(
				domain.NewClause("birthday", domain.OpGreaterEq, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
				domain.NewClause("birthday", domain.OpLessEq, time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)),
			),
		},
		{
			name:     "range syntax on text is just a value",
			input:    "name: a..b",
			expected: domain.NewClause("name", domain.OpILike, "%a..b%"),
		},
		{
			name:     "range needs the default comparison",
			input:    "age: > 20..40",
			expected: domain.NewClause("age", domain.OpGreater, nil),
		},
		{
			name:  "adjacency is an implicit AND",
			input: "Name: John Age: 30",
			expected: domain.And(
				domain.NewClause("name", domain.OpILike, "%John%"),
				domain.NewClause("age", domain.OpEq, int64(30)),
			),
		},
		{
			name:  "explicit AND connective",
			input: "name: John & age: > 30",
			expected: domain.And(
				domain.NewClause("name", domain.OpILike, "%John%"),
				domain.NewClause("age", domain.OpGreater, int64(30)),
			),
		},
		{
			name:  "OR connective",
			input: "name: John | name: Jane",
			expected: domain.Or(
				domain.NewClause("name", domain.OpILike, "%John%"),
				domain.NewClause("name", domain.OpILike, "%Jane%"),
			),
		},
		{
			name:  "OR binds tighter than the implicit AND",
			input: "Name: John | Name: Jane Age: 30",
			expected: domain.And(
				domain.Or(
					domain.NewClause("name", domain.OpILike, "%John%"),
					domain.NewClause("name", domain.OpILike, "%Jane%"),
				),
				domain.NewClause("age", domain.OpEq, int64(30)),
			),
		},
		{
			name:  "explicit grouping",
			input: "(name: John | name: Jane) & age: > 30",
			expected: domain.And(
				domain.Or(
					domain.NewClause("name", domain.OpILike, "%John%"),
					domain.NewClause("name", domain.OpILike, "%Jane%"),
				),
				domain.NewClause("age", domain.OpGreater, int64(30)),
			),
		},
		{
			name:  "consecutive ORs flatten",
			input: "Age: 30 | Age: 40 | Age: 50",
			expected: domain.Or(
				domain.NewClause("age", domain.OpEq, int64(30)),
				domain.NewClause("age", domain.OpEq, int64(40)),
				domain.NewClause("age", domain.OpEq, int64(50)),
			),
		},
		{
			name:  "a parenthesized OR stays a closed operand",
			input: "(Age: 30 | Age: 40) | Age: 50",
			expected: domain.Or(
				domain.Or(
					domain.NewClause("age", domain.OpEq, int64(30)),
					domain.NewClause("age", domain.OpEq, int64(40)),
				),
				domain.NewClause("age", domain.OpEq, int64(50)),
			),
		},
		{
			name:  "two OR runs conjoin",
			input: "Age: 30 | Age: 40 Name: x | Name: y",
			expected: domain.And(
				domain.Or(
					domain.NewClause("age", domain.OpEq, int64(30)),
					domain.NewClause("age", domain.OpEq, int64(40)),
				),
				domain.Or(
					domain.NewClause("name", domain.OpILike, "%x%"),
					domain.NewClause("name", domain.OpILike, "%y%"),
				),
			),
		},
		{
			name:     "stray connectives are tolerated",
			input:    "| Name: John &",
			expected: domain.NewClause("name", domain.OpILike, "%John%"),
		},
		{
			name:     "relational comparison targets the record name",
			input:    "company: Acme",
			expected: domain.NewClause("company.rec_name", domain.OpILike, "%Acme%"),
		},
		{
			name:     "relation sub-field by dotted label",
			input:    "Company.Code: X1",
			expected: domain.NewClause("company.code", domain.OpILike, "%X1%"),
		},
		{
			name:     "multi-word label",
			input:    "Order Date: 2024-05-01",
			expected: domain.NewClause("order_date", domain.OpEq, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:  "unknown label falls back to full text",
			input: "zzz: foo",
			expected: domain.And(
				domain.NewClause("rec_name", domain.OpILike, "%zzz%"),
				domain.NewClause("rec_name", domain.OpILike, "%foo%"),
			),
		},
		{
			name:     "selection label converts to its key",
			input:    "State: Draft",
			expected: domain.NewClause("state", domain.OpEq, "draft"),
		},
		{
			name:     "selection labels match case-insensitively",
			input:    "state: DRAFT",
			expected: domain.NewClause("state", domain.OpEq, "draft"),
		},
		{
			name:     "value list forces a set comparison",
			input:    "State: Draft; Done",
			expected: &domain.Clause{Path: "state", Op: domain.OpIn, Value: []any{"draft", "done"}},
		},
		{
			name:     "negated value list",
			input:    "State: ! Draft; Done",
			expected: &domain.Clause{Path: "state", Op: domain.OpNotIn, Value: []any{"draft", "done"}},
		},
		{
			name:     "list on a text field",
			input:    "name: a; b",
			expected: &domain.Clause{Path: "name", Op: domain.OpIn, Value: []any{"a", "b"}},
		},
		{
			name:     "trailing semicolon still makes a list",
			input:    "name: a;",
			expected: &domain.Clause{Path: "name", Op: domain.OpIn, Value: []any{"a"}},
		},
		{
			name:     "multiselection defaults to a set comparison",
			input:    "Tags: Urgent",
			expected: &domain.Clause{Path: "tags", Op: domain.OpIn, Value: []any{"urgent"}},
		},
		{
			name:     "negated multiselection",
			input:    "Tags: ! Urgent",
			expected: &domain.Clause{Path: "tags", Op: domain.OpNotIn, Value: []any{"urgent"}},
		},
		{
			name:     "multiselection keeps an explicit operator",
			input:    "Tags: = Urgent",
			expected: domain.NewClause("tags", domain.OpEq, "urgent"),
		},
		{
			name:     "reference value splits off its target",
			input:    "Origin: Sale,42",
			expected: &domain.Clause{Path: "origin.rec_name", Op: domain.OpILike, Value: "%42%", Target: "sale.sale"},
		},
		{
			name:     "reference target matches case-insensitively",
			input:    "origin: sale,Niles",
			expected: &domain.Clause{Path: "origin.rec_name", Op: domain.OpILike, Value: "%Niles%", Target: "sale.sale"},
		},
		{
			name:     "reference without a target match",
			input:    "Origin: Acme",
			expected: domain.NewClause("origin", domain.OpILike, "%Acme%"),
		},
		{
			name:     "empty text value matches everything",
			input:    "name:",
			expected: domain.NewClause("name", domain.OpILike, "%"),
		},
		{
			name:     "explicit equality with wildcards is a pattern match",
			input:    "name: = J%n",
			expected: domain.NewClause("name", domain.OpILike, "J%n"),
		},
		{
			name:     "explicit inequality with wildcards",
			input:    "name: != J%n",
			expected: domain.NewClause("name", domain.OpNotILike, "J%n"),
		},
		{
			name:     "boolean spellings",
			input:    "active: yes",
			expected: domain.NewClause("active", domain.OpEq, true),
		},
		{
			name:     "numeric value",
			input:    "salary: 3.5",
			expected: domain.NewClause("salary", domain.OpEq, 3.5),
		},
		{
			name:     "unconvertible value compares against null",
			input:    "age: abc",
			expected: domain.NewClause("age", domain.OpEq, nil),
		},
		{
			name:     "empty selection value compares against null",
			input:    "state:",
			expected: domain.NewClause("state", domain.OpEq, nil),
		},
	}

	p := testParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := p.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			if tt.expected == nil {
				if node != nil {
					t.Errorf("expected nil tree, got %#v", node)
				}
				return
			}
			if !reflect.DeepEqual(node, tt.expected) {
				t.Errorf("expected %#v, got %#v", tt.expected, node)
			}
		})
	}
}

func TestParseHealsUnterminatedQuote(t *testing.T) {
	p := testParser(t)

	healed, err := p.Parse(`name: "John`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	closed, err := p.Parse(`name: "John"`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reflect.DeepEqual(healed, closed) {
		t.Errorf("healed parse %#v differs from closed parse %#v", healed, closed)
	}
}

func TestParseQuoteHealFailure(t *testing.T) {
	p := testParser(t)

	// The synthetic closing quote lands behind the escape, so the
	// second attempt stays open too.
	_, err := p.Parse(`name: "Jo\`)
	if !errors.Is(err, ErrUnterminatedQuote) {
		t.Errorf("expected ErrUnterminatedQuote, got %v", err)
	}
}

func TestParseUnbalancedParentheses(t *testing.T) {
	p := testParser(t)

	tests := []struct {
		name  string
		input string
	}{
		{"unclosed open", "(name: John"},
		{"stray close", "name: John)"},
		{"crossed pair", ")("},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.input)
			if !errors.Is(err, ErrUnbalancedParen) {
				t.Errorf("expected ErrUnbalancedParen, got %v", err)
			}
		})
	}

	if _, err := p.Parse("(((name: John)))"); err != nil {
		t.Errorf("balanced nesting should parse, got %v", err)
	}
}

func TestParseNestingDepth(t *testing.T) {
	p, err := New(Config{
		Registry: schema.New(testFields()),
		Logger:   testLogger(),
		MaxDepth: 2,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := p.Parse("((John))"); err != nil {
		t.Errorf("nesting at the cap should parse, got %v", err)
	}
	if _, err := p.Parse("(((John)))"); !errors.Is(err, ErrNestingTooDeep) {
		t.Errorf("expected ErrNestingTooDeep, got %v", err)
	}

	deep := strings.Repeat("(", DefaultMaxDepth+1) + "x" + strings.Repeat(")", DefaultMaxDepth+1)
	if _, err := testParser(t).Parse(deep); !errors.Is(err, ErrNestingTooDeep) {
		t.Errorf("expected ErrNestingTooDeep at the default cap, got %v", err)
	}
}

func TestWithRegistry(t *testing.T) {
	p := testParser(t)

	extended := p.Registry().Merge(map[string]schema.Field{
		"city": {Label: "City", Type: schema.TypeChar},
	}, "", "")
	p2 := p.WithRegistry(extended)

	node, err := p2.Parse("City: Berlin")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	expected := domain.NewClause("city", domain.OpILike, "%Berlin%")
	if !reflect.DeepEqual(node, expected) {
		t.Errorf("expected %#v, got %#v", expected, node)
	}

	// The original parser still resolves against its own snapshot.
	node, err = p.Parse("City: Berlin")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, ok := node.(*domain.Junction); !ok {
		t.Errorf("expected the old snapshot to treat City as plain text, got %#v", node)
	}
}
