// Package postgres runs compiled search expressions against a
// PostgreSQL table through a pgx pool. Filter trees are rendered as
// parameterized conditions, so values never enter the query text.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veldtlab/searchql"
	"github.com/veldtlab/searchql/domain"
)

// DefaultLimit bounds a search that does not set its own limit.
const DefaultLimit = 100

// Options configures a store.
type Options struct {
	// Table is the table searched. REQUIRED.
	Table string

	// Schema qualifies the table. OPTIONAL, defaults to "public".
	Schema string

	// Columns customizes how clause paths map to columns. OPTIONAL.
	Columns *domain.EncoderOptions

	// Logger receives query logging. OPTIONAL, defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Store executes search expressions against a single table.
type Store struct {
	pool    *pgxpool.Pool
	schema  string
	table   string
	parser  *searchql.Parser
	encoder *domain.PostgresEncoder
	logger  *slog.Logger
}

// New creates a store over an existing pool.
func New(pool *pgxpool.Pool, parser *searchql.Parser, opts Options) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres: nil pgx pool")
	}
	if parser == nil {
		return nil, fmt.Errorf("postgres: nil parser")
	}
	if strings.TrimSpace(opts.Table) == "" {
		return nil, fmt.Errorf("postgres: table name is empty")
	}
	schema := opts.Schema
	if strings.TrimSpace(schema) == "" {
		schema = "public"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		pool:    pool,
		schema:  schema,
		table:   opts.Table,
		parser:  parser,
		encoder: domain.NewPostgresEncoder(opts.Columns),
		logger:  logger,
	}, nil
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

	cond, args, err := s.encoder.Encode(node)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(s.tableName())
	if cond != "" {
		b.WriteString(" WHERE ")
		b.WriteString(cond)
	}
	fmt.Fprintf(&b, " LIMIT $%d", len(args)+1)
	args = append(args, limit)

	query := b.String()
	s.logger.Debug("executing search", "query", query)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	out := make([]map[string]any, 0)
	fields := rows.FieldDescriptions()
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of rows the expression matches.
func (s *Store) Count(ctx context.Context, expression string) (int64, error) {
	node, err := s.parser.Parse(expression)
	if err != nil {
		return 0, err
	}

	cond, args, err := s.encoder.Encode(node)
	if err != nil {
		return 0, fmt.Errorf("postgres: %w", err)
	}
	query := "SELECT COUNT(*) FROM " + s.tableName()
	if cond != "" {
		query += " WHERE " + cond
	}

	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return count, nil
}

func (s *Store) tableName() string {
	return quoteIdent(s.schema) + "." + quoteIdent(s.table)
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
