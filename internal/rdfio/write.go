package rdfio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/piprate/json-gold/ld"
)

// Write serializes quads in format. The quads must carry no graph name.
// Prefixes abbreviate IRIs where the format supports it.
func Write(ctx context.Context, w io.Writer, format string, quads []rdf.Quad, prefixes map[string]string) error {
	switch format {
	case Turtle:
		return rdf.SerializeAny(ctx, w, format, quads, rdf.AnyFormatOptions{
			Turtle: &rdf.TurtleEncodeOptions{Pretty: true, Prefixes: maps.Clone(prefixes)},
		})
	case RDFXML:
		return rdf.SerializeAny(ctx, w, format, quads, rdf.AnyFormatOptions{
			RDFXML: &rdf.RDFXMLEncodeOptions{Pretty: true, Prefixes: maps.Clone(prefixes)},
		})
	case NTriples:
		return rdf.SerializeAny(ctx, w, format, quads, rdf.AnyFormatOptions{})
	case JSONLD:
		return writeJSONLD(ctx, w, quads, prefixes)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// writeJSONLD converts the N-Triples form of quads to JSON-LD and compacts
// it with prefixes as the context.
func writeJSONLD(ctx context.Context, w io.Writer, quads []rdf.Quad, prefixes map[string]string) error {
	var nt bytes.Buffer
	if err := rdf.SerializeAny(ctx, &nt, NTriples, quads, rdf.AnyFormatOptions{}); err != nil {
		return err
	}

	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.Format = "application/n-quads"
	expanded, err := proc.FromRDF(nt.String(), opts)
	if err != nil {
		return fmt.Errorf("failed to convert to JSON-LD: %w", err)
	}

	jsonCtx := make(map[string]any, len(prefixes))
	for prefix, ns := range prefixes {
		if prefix != "" {
			jsonCtx[prefix] = ns
		}
	}
	compacted, err := proc.Compact(expanded, map[string]any{"@context": jsonCtx}, ld.NewJsonLdOptions(""))
	if err != nil {
		return fmt.Errorf("failed to compact JSON-LD: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(compacted)
}

// WriteFiles writes every entry of OutputFiles into dir, which must exist.
func WriteFiles(ctx context.Context, dir string, quads []rdf.Quad, prefixes map[string]string) error {
	for _, out := range OutputFiles {
		if err := writeFile(ctx, filepath.Join(dir, out.Name), out.Format, quads, prefixes); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(ctx context.Context, path, format string, quads []rdf.Quad, prefixes map[string]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Write(ctx, bw, format, quads, prefixes); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return bw.Flush()
}
