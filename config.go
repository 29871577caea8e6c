package searchql

import (
	"log/slog"

	"github.com/veldtlab/searchql/schema"
)

// DefaultMaxDepth is the parenthetical nesting cap used when
// Config.MaxDepth is zero.
const DefaultMaxDepth = 32

// Config contains configuration for a Parser.
type Config struct {
	// Registry provides the searchable fields for label lookup.
	// REQUIRED: MUST NOT be nil.
	Registry *schema.Registry

	// Convert turns raw clause text into a typed value.
	// OPTIONAL: Uses DefaultConverter if nil.
	Convert ValueConverter

	// Format renders a typed value back into clause text.
	// OPTIONAL: Uses DefaultFormatter if nil.
	// Convert and Format should be inverses of each other, otherwise
	// parse/serialize round trips will drift.
	Format ValueFormatter

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger

	// MaxDepth caps parenthetical nesting during parsing.
	// OPTIONAL: If 0, uses DefaultMaxDepth.
	MaxDepth int
}
