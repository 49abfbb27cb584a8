package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/rdfpub/generator/internal/cli/config"
	siteconfig "github.com/rdfpub/generator/internal/config"
	"github.com/rdfpub/generator/internal/testutil"
)

const testDescriptor = `BaseURI: https://example.org/
DefaultLanguage: en
CleanOutputDirectory: true
Prefixes:
  ex: /ns#
`

// writeTestSite creates an input tree with a root and a /people resource.
func writeTestSite(t *testing.T) string {
	t.Helper()
	in := t.TempDir()
	testutil.WriteTree(t, in, map[string]string{
		siteconfig.DescriptorFileName: testDescriptor,
		"index@en.hbs":                "<h1>{{title}}</h1>",
		"data.ttl": `@prefix ex: <https://example.org/ns#> .
<> ex:title "Home"@en .
`,
		"people/data.ttl": `@prefix ex: <https://example.org/ns#> .
<> ex:title "People"@en ; ex:size 2 .
`,
	})
	return in
}

// execute runs cmd with args, capturing stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(new(bytes.Buffer))
	cmd.SetArgs(args)
	cmd.SetContext(config.WithLogger(context.Background(), testutil.NewTestLogger(t)))

	err := cmd.Execute()
	return buf.String(), err
}

// buildTestSite builds a fresh test site and returns its output directory.
func buildTestSite(t *testing.T) string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out")
	_, err := execute(t, NewBuildCommand(), writeTestSite(t), out)
	require.NoError(t, err)
	return out
}
