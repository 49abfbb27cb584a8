package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/rdfpub/generator/internal/store"
)

const (
	replPrompt      = "rdfpub> "
	replContinue    = "   ...> "
	replHistoryName = "query_history"
)

// historyFile returns the REPL history location in the user cache, or ""
// when there is none. The output directory is not used since it is published.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "rdfpub")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return ""
	}
	return filepath.Join(dir, replHistoryName)
}

func runQueryREPL(cmd *cobra.Command, st *store.Store, opts *QueryOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile(),
		AutoComplete:    newQueryCompleter(ctx, st),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rdfpub query REPL (store: %s)\n", st.Path())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if buf.Len() == 0 {
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ".") {
				if quit := handleDotCommand(ctx, cmd, st, trimmed); quit {
					break
				}
				continue
			}
		}

		// A query ends with ';' or an empty line.
		query, done := accumulate(&buf, trimmed)
		if !done {
			rl.SetPrompt(replContinue)
			continue
		}
		rl.SetPrompt(replPrompt)

		if err := executeAndRender(ctx, cmd.OutOrStdout(), st, query, opts); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// accumulate adds line to buf and returns the complete query once line
// terminates it. buf is reset when a query is returned.
func accumulate(buf *strings.Builder, line string) (string, bool) {
	end := line == "" || strings.HasSuffix(line, ";")
	if line != "" {
		buf.WriteString(strings.TrimSuffix(line, ";"))
		buf.WriteString("\n")
	}
	if !end {
		return "", false
	}
	query := buf.String()
	buf.Reset()
	return query, strings.TrimSpace(query) != ""
}

// handleDotCommand runs a REPL command and reports whether the REPL should exit.
func handleDotCommand(ctx context.Context, cmd *cobra.Command, st *store.Store, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())

	case ".prefixes":
		if err := listPrefixes(ctx, cmd.OutOrStdout(), st); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}

	case ".graphs":
		if err := listGraphs(ctx, cmd.OutOrStdout(), st); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}

	case ".clear":
		_, _ = fmt.Fprint(cmd.OutOrStdout(), "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .prefixes       List the registered namespace prefixes
  .graphs         List the named graphs with their sizes
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - End a query with ';' or an empty line
  - Registered prefixes are declared automatically
  - Tab completion works for keywords and prefixes
`
	_, _ = fmt.Fprintln(w, help)
}

var sparqlKeywords = []string{
	"SELECT", "DISTINCT", "REDUCED", "WHERE", "GRAPH", "OPTIONAL", "FILTER",
	"ORDER BY", "LIMIT", "OFFSET", "PREFIX", "BASE",
}

// newQueryCompleter creates a readline completer for dot commands, keywords
// and the registered prefixes.
func newQueryCompleter(ctx context.Context, st *store.Store) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, kw := range sparqlKeywords {
		items = append(items, readline.PcItem(kw))
	}

	// Prefixes only help completion, so a failure is not reported.
	if ns, err := st.Namespaces(ctx); err == nil {
		for _, prefix := range slices.Sorted(maps.Keys(ns)) {
			items = append(items, readline.PcItem(prefix+":"))
		}
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".prefixes"),
		readline.PcItem(".graphs"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
