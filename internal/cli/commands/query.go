package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rdfpub/generator/internal/content"
	"github.com/rdfpub/generator/internal/sparql"
	"github.com/rdfpub/generator/internal/store"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
	Base   string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <output-dir> [SPARQL]",
		Short: "Query the content store of a built site",
		Long: `Run SPARQL SELECT queries against the content store of a built site.

The prefixes of the site descriptor are declared automatically. Patterns
outside GRAPH match the union of all graphs.

When invoked without a query on a terminal, enters interactive REPL mode.`,
		Example: `  # Run a query directly
  rdfpub query ./public "SELECT ?g WHERE { GRAPH ?g { ?s ?p ?o } }"

  # Read the query from a file and print SPARQL JSON results
  rdfpub query ./public -i report.rq --format json

  # Interactive mode
  rdfpub query ./public`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read the query from a file")
	cmd.Flags().StringVar(&opts.Base, "base", "", "Base IRI for relative IRIs in the query")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// storePath returns the content store of the site built into outputDir.
func storePath(outputDir string) string {
	return filepath.Join(outputDir, content.DBDir, content.StoreFile)
}

// openStore opens the content store of outputDir in read-only mode.
func openStore(outputDir string) (*store.Store, error) {
	path := storePath(outputDir)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("content store not found at %s (run 'rdfpub build' first)", path)
	}
	st := store.New()
	if err := st.OpenReadOnly(path); err != nil {
		return nil, fmt.Errorf("failed to open content store: %w", err)
	}
	return st, nil
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	if err := checkFormat(opts.Format); err != nil {
		return err
	}

	var text string
	switch {
	case len(args) > 1:
		text = strings.Join(args[1:], " ")
	case opts.Input != "":
		data, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		text = string(data)
	case !isTerminal(os.Stdin):
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return errors.New("no query given on stdin")
		}
		text = string(data)
	}

	st, err := openStore(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if text == "" {
		return runQueryREPL(cmd, st, opts)
	}
	return executeAndRender(cmd.Context(), cmd.OutOrStdout(), st, text, opts)
}

// executeAndRender prepares text with the store's prefixes, evaluates it and
// renders the results.
func executeAndRender(ctx context.Context, w io.Writer, st *store.Store, text string, opts *QueryOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ns, err := st.Namespaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to read namespaces: %w", err)
	}

	q, err := sparql.Prepare(sparql.Preamble(ns, text)+text, opts.Base)
	if err != nil {
		return err
	}
	results, err := q.Evaluate(ctx, st, nil)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return renderResults(w, results, opts.Format)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
