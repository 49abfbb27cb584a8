package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	siteconfig "github.com/rdfpub/generator/internal/config"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	BaseURI  string
	Language string
	Force    bool
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new site",
		Long: `Initialize a new site with a .rdfpub descriptor and a starter resource.

This creates:
  - .rdfpub             site descriptor
  - index@<lang>.hbs    index template of the root resource
  - data.ttl            RDF data of the root resource
  - title.rq            query made available to the root layout`,
		Example: `  # Initialize in the current directory
  rdfpub init --base-uri https://example.org/

  # Initialize a German site in a new directory
  rdfpub init my-site --base-uri https://example.org/ --language de`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.BaseURI, "base-uri", "https://example.org/", "Base URI of the site")
	cmd.Flags().StringVar(&opts.Language, "language", "en", "Default language of the site")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing descriptor")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, opts *InitOptions) error {
	d := siteconfig.Descriptor{
		BaseURI:              opts.BaseURI,
		DefaultLanguage:      opts.Language,
		CleanOutputDirectory: true,
		SPARQLEndpoint:       siteconfig.DefaultSPARQLEndpoint,
		Prefixes: map[string]string{
			"dcterms": "http://purl.org/dc/terms/",
		},
		ExcludeFiles:  []string{"**/*~", "**/#*#"},
		CompressFiles: []string{"**/*.css", "**/*.js", "**/*.svg"},
	}

	// Validate before touching the filesystem.
	if _, err := siteconfig.New(dir, "", d); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	descriptor := filepath.Join(dir, siteconfig.DescriptorFileName)
	if _, err := os.Stat(descriptor); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", descriptor)
	}

	data, err := yaml.Marshal(&d)
	if err != nil {
		return fmt.Errorf("failed to encode descriptor: %w", err)
	}
	if err := os.WriteFile(descriptor, data, 0600); err != nil {
		return fmt.Errorf("failed to write descriptor: %w", err)
	}

	lang := strings.ToLower(opts.Language)
	starter := map[string]string{
		"index@" + lang + ".hbs": indexTemplate,
		"data.ttl":               starterData,
		"title.rq":               starterQuery,
	}
	for name, content := range starter {
		if err := writeStarter(filepath.Join(dir, name), content, opts.Force); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Initialized site in %s\n", dir)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Next steps:")
	_, _ = fmt.Fprintf(w, "  rdfpub build %s <output-dir>\n", dir)
	return nil
}

// writeStarter writes a starter file unless it exists and force is unset.
func writeStarter(path, content string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

const indexTemplate = `<!DOCTYPE html>
<html>
  <head><title>{{title.results.bindings.0.title.value}}</title></head>
  <body>
    <h1>{{title.results.bindings.0.title.value}}</h1>
  </body>
</html>
`

const starterData = `@prefix dcterms: <http://purl.org/dc/terms/> .

<> dcterms:title "Hello, world"@en .
`

const starterQuery = `SELECT ?title
WHERE {
  GRAPH ?resource { ?resource dcterms:title ?title }
}
`
