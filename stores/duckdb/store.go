// Package duckdb runs compiled search expressions against a DuckDB
// table. Filter trees are rendered as inline WHERE fragments; a node
// the dialect cannot express only loosens the filter, so callers that
// need exactness should re-check rows against the tree.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/veldtlab/searchql"
	"github.com/veldtlab/searchql/domain"
)

// DefaultLimit bounds a search that does not set its own limit.
const DefaultLimit = 100

// Options configures a store.
type Options struct {
	// Table is the table searched. REQUIRED.
	Table string

	// Columns customizes how clause paths map to columns. OPTIONAL.
	Columns *domain.EncoderOptions

	// Logger receives query logging. OPTIONAL, defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Store executes search expressions against a single table.
type Store struct {
	db      *sql.DB
	table   string
	parser  *searchql.Parser
	encoder *domain.DuckDBEncoder
	logger  *slog.Logger
}

// New creates a store over an existing connection.
func New(db *sql.DB, parser *searchql.Parser, opts Options) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("duckdb: nil database handle")
	}
	if parser == nil {
		return nil, fmt.Errorf("duckdb: nil parser")
	}
	if strings.TrimSpace(opts.Table) == "" {
		return nil, fmt.Errorf("duckdb: table name is empty")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:      db,
		table:   opts.Table,
		parser:  parser,
		encoder: domain.NewDuckDBEncoder(opts.Columns),
		logger:  logger,
	}, nil
}

// Open opens a DuckDB database at path and wraps it in a store. An
// empty path opens an in-memory database.
func Open(path string, parser *searchql.Parser, opts Options) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("duckdb: open %q: %w", path, err)
	}
	s, err := New(db, parser, opts)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for setup work like loading data.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Search parses the expression and returns matching rows as column
// name to value maps. A limit of zero or less applies DefaultLimit.
func (s *Store) Search(ctx context.Context, expression string, limit int) ([]map[string]any, error) {
	node, err := s.parser.Parse(expression)
	if err != nil {
		return nil, err
	}
	return s.Query(ctx, node, limit)
}

// Query runs an already-compiled filter tree.
func (s *Store) Query(ctx context.Context, node domain.Node, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(quoteIdent(s.table))
	if cond := s.encoder.Encode(node); cond != "" {
		b.WriteString(" WHERE ")
		b.WriteString(cond)
	}
	fmt.Fprintf(&b, " LIMIT %d", limit)

	query := b.String()
	s.logger.Debug("executing search", "query", query)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("duckdb: query: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Count returns the number of rows the expression matches.
func (s *Store) Count(ctx context.Context, expression string) (int64, error) {
	node, err := s.parser.Parse(expression)
	if err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) FROM " + quoteIdent(s.table)
	if cond := s.encoder.Encode(node); cond != "" {
		query += " WHERE " + cond
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("duckdb: count: %w", err)
	}
	return count, nil
}

func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
