package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdfpub/generator/internal/cli/config"
	siteconfig "github.com/rdfpub/generator/internal/config"
	"github.com/rdfpub/generator/internal/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"build", "init", "query", "version", "completion"})
}

func TestRootCmd_BuildsDirectly(t *testing.T) {
	in := t.TempDir()
	testutil.WriteTree(t, in, map[string]string{
		siteconfig.DescriptorFileName: "BaseURI: https://example.org/\nDefaultLanguage: en\n",
		"index@en.hbs":                "<p>hi</p>",
	})
	out := filepath.Join(t.TempDir(), "out")

	output, err := run(t, in, out, "--json", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, output, `"status": "success"`)
	assert.FileExists(t, filepath.Join(out, "layouts", "index@en.hbs"))
}

func TestRootCmd_Args(t *testing.T) {
	_, err := run(t, "only-one")
	assert.Error(t, err)
}

func TestRootCmd_InvalidLogLevel(t *testing.T) {
	_, err := run(t, "version", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestCompletionCommand(t *testing.T) {
	output, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, output, "rdfpub")
}
