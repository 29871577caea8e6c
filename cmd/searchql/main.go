// Command searchql compiles search expressions against a field schema.
// For each expression it prints the canonical text form, the JSON wire
// filter, and optionally the condition for a SQL dialect.
//
// A single expression comes from -e; without it the command reads one
// expression per line from stdin. The schema comes from a YAML file
// (--schema) or a compiled snapshot (--snapshot); --write-snapshot
// compiles the former into the latter.
//
// Configuration is read from searchql.yaml, SEARCHQL_* environment
// variables, and flags, in increasing order of precedence.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/veldtlab/searchql"
	"github.com/veldtlab/searchql/domain"
	"github.com/veldtlab/searchql/internal/snapshot"
	"github.com/veldtlab/searchql/schema"
)

type config struct {
	Schema struct {
		Path     string `mapstructure:"path"`
		Snapshot string `mapstructure:"snapshot"`
	} `mapstructure:"schema"`
	Parser struct {
		MaxDepth int `mapstructure:"max_depth"`
	} `mapstructure:"parser"`
	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("searchql", pflag.ContinueOnError)
	expression := flags.StringP("expression", "e", "", "compile a single expression and exit")
	completeInput := flags.String("complete", "", "print completions for a partial expression and exit")
	dialect := flags.String("dialect", "", "also render each filter for a SQL dialect (duckdb or postgres)")
	writeSnapshot := flags.String("write-snapshot", "", "compile the schema into a snapshot file and exit")
	watch := flags.Bool("watch", false, "reload the schema file on change while reading stdin")
	flags.String("schema", "", "field definition YAML file")
	flags.String("snapshot", "", "compiled schema snapshot")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging.Level)

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	if *writeSnapshot != "" {
		if err := snapshot.WriteFile(*writeSnapshot, reg); err != nil {
			return err
		}
		logger.Info("snapshot written", "path", *writeSnapshot, "fields", reg.Len())
		return nil
	}

	parser, err := searchql.New(searchql.Config{
		Registry: reg,
		Logger:   logger,
		MaxDepth: cfg.Parser.MaxDepth,
	})
	if err != nil {
		return err
	}

	switch {
	case *completeInput != "":
		for _, s := range parser.Complete(*completeInput) {
			fmt.Println(s)
		}
		return nil
	case *expression != "":
		return printExpression(os.Stdout, parser, *expression, *dialect)
	default:
		return promptLoop(parser, cfg, logger, *dialect, *watch)
	}
}

// loadConfig merges the config file, environment, and flags. A missing
// config file is fine; a malformed one is not.
func loadConfig(flags *pflag.FlagSet) (*config, error) {
	viper.SetConfigName("searchql")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}

	viper.SetDefault("schema.path", "")
	viper.SetDefault("schema.snapshot", "")
	viper.SetDefault("parser.max_depth", searchql.DefaultMaxDepth)
	viper.SetDefault("logging.level", "warn")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	viper.SetEnvPrefix("SEARCHQL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for key, name := range map[string]string{
		"schema.path":     "schema",
		"schema.snapshot": "snapshot",
		"logging.level":   "log-level",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	var cfg config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}

func loadRegistry(cfg *config) (*schema.Registry, error) {
	switch {
	case cfg.Schema.Snapshot != "":
		return snapshot.ReadFile(cfg.Schema.Snapshot)
	case cfg.Schema.Path != "":
		fields, err := schema.LoadFile(cfg.Schema.Path)
		if err != nil {
			return nil, err
		}
		return schema.New(fields), nil
	default:
		return nil, errors.New("no schema configured, pass --schema or --snapshot")
	}
}

func printExpression(w io.Writer, p *searchql.Parser, input, dialect string) error {
	node, err := p.Parse(input)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, p.Serialize(node))
	wire, err := domain.Encode(node)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", wire)
	return printCondition(w, node, dialect)
}

func printCondition(w io.Writer, node domain.Node, dialect string) error {
	switch dialect {
	case "":
		return nil
	case "duckdb":
		cond := domain.NewDuckDBEncoder(nil).Encode(node)
		if cond == "" {
			cond = "TRUE"
		}
		fmt.Fprintln(w, cond)
		return nil
	case "postgres":
		cond, args, err := domain.NewPostgresEncoder(nil).Encode(node)
		if err != nil {
			return err
		}
		if cond == "" {
			cond = "TRUE"
		}
		fmt.Fprintf(w, "%s %v\n", cond, args)
		return nil
	default:
		return fmt.Errorf("unknown dialect %q", dialect)
	}
}

// promptLoop reads expressions from stdin until EOF. With watch enabled
// the schema file is reloaded in the background and later lines parse
// against the updated registry.
func promptLoop(p *searchql.Parser, cfg *config, logger *slog.Logger, dialect string, watch bool) error {
	var mu sync.Mutex
	current := func() *searchql.Parser {
		mu.Lock()
		defer mu.Unlock()
		return p
	}

	if watch {
		if cfg.Schema.Path == "" {
			return errors.New("--watch needs a schema file, not a snapshot")
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			err := schema.WatchFile(ctx, cfg.Schema.Path, logger, func(r *schema.Registry) {
				mu.Lock()
				p = p.WithRegistry(r)
				mu.Unlock()
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("schema watch stopped", "error", err)
			}
		}()
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := printExpression(os.Stdout, current(), line, dialect); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
	return scanner.Err()
}
