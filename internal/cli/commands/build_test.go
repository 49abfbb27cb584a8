package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	siteconfig "github.com/rdfpub/generator/internal/config"
	"github.com/rdfpub/generator/internal/engine"
	"github.com/rdfpub/generator/internal/testutil"
)

func TestBuildCommand_JSON(t *testing.T) {
	in := writeTestSite(t)
	out := filepath.Join(t.TempDir(), "out")

	output, err := execute(t, NewBuildCommand(), in, out, "--json")
	require.NoError(t, err)

	var summary reportJSON
	require.NoError(t, json.Unmarshal([]byte(output), &summary))
	assert.Equal(t, statusSuccess, summary.Status)
	assert.Equal(t, 2, summary.Resources)
	assert.Empty(t, summary.Errors)
	assert.Empty(t, summary.Fatal)

	assert.FileExists(t, filepath.Join(out, "resources", "people", "data.nt"))
	assert.FileExists(t, filepath.Join(out, "layouts", "index@en.hbs"))
	assert.FileExists(t, storePath(out))
}

func TestBuildCommand_Text(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")

	output, err := execute(t, NewBuildCommand(), writeTestSite(t), out)
	require.NoError(t, err)
	assert.Contains(t, output, "Build succeeded")
	assert.Contains(t, output, "2 resources")
}

func TestBuildCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		args    func(in, out string) []string
		wantErr error
	}{
		{
			name:    "missing descriptor",
			files:   map[string]string{"data.ttl": ""},
			args:    func(in, out string) []string { return []string{in, out} },
			wantErr: siteconfig.ErrMissingDescriptor,
		},
		{
			name: "invalid language",
			files: map[string]string{
				siteconfig.DescriptorFileName: "BaseURI: https://example.org/\nDefaultLanguage: not_a_tag\n",
			},
			args:    func(in, out string) []string { return []string{in, out} },
			wantErr: siteconfig.ErrInvalidLanguage,
		},
		{
			name: "watch without clean output",
			files: map[string]string{
				siteconfig.DescriptorFileName: "BaseURI: https://example.org/\nDefaultLanguage: en\n",
			},
			args: func(in, out string) []string { return []string{in, out, "--watch"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := t.TempDir()
			testutil.WriteTree(t, in, tt.files)
			out := filepath.Join(t.TempDir(), "out")

			_, err := execute(t, NewBuildCommand(), tt.args(in, out)...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestBuildCommand_RecoverableErrors(t *testing.T) {
	in := writeTestSite(t)
	testutil.WriteTree(t, in, map[string]string{"broken/data.ttl": "<a> <b> ."})
	out := filepath.Join(t.TempDir(), "out")

	output, err := execute(t, NewBuildCommand(), in, out, "--json")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrBuildFailed)

	var summary reportJSON
	require.NoError(t, json.Unmarshal([]byte(output), &summary))
	assert.Equal(t, statusErrors, summary.Status)
	require.NotEmpty(t, summary.Errors)
	assert.Contains(t, summary.Errors[0].Path, "data.ttl")
}

func TestBuildCommand_OutputNotEmpty(t *testing.T) {
	in := t.TempDir()
	testutil.WriteTree(t, in, map[string]string{
		siteconfig.DescriptorFileName: "BaseURI: https://example.org/\nDefaultLanguage: en\n",
	})
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "keep.txt"), []byte("x"), 0600))

	output, err := execute(t, NewBuildCommand(), in, out, "--json")
	require.Error(t, err)

	var fatal *engine.FatalError
	assert.True(t, errors.As(err, &fatal))

	var summary reportJSON
	require.NoError(t, json.Unmarshal([]byte(output), &summary))
	assert.Equal(t, statusFailed, summary.Status)
	assert.NotEmpty(t, summary.Fatal)
}

func TestRenderReportText_ErrorTable(t *testing.T) {
	report := &engine.Report{
		Files:    3,
		Duration: 1500 * time.Millisecond,
		Errors: []*engine.BuildError{
			{Reason: "error reading RDF file", Path: "docs/data.ttl", Err: errors.New("unexpected EOF")},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, renderReport(&buf, report, engine.ErrBuildFailed, "text"))

	output := buf.String()
	assert.Contains(t, output, "REASON")
	assert.Contains(t, output, "docs/data.ttl")
	assert.Contains(t, output, "unexpected EOF")
	assert.Contains(t, output, "Build finished with 1 errors")
	assert.Contains(t, output, "1.5s")
}

func TestWithin(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		path string
		dir  string
		want bool
	}{
		{path: sep + "site", dir: sep + "site", want: true},
		{path: sep + filepath.Join("site", "out", "x"), dir: sep + filepath.Join("site", "out"), want: true},
		{path: sep + filepath.Join("site", "outside"), dir: sep + filepath.Join("site", "out"), want: false},
		{path: sep + "other", dir: sep + "site", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, within(tt.path, tt.dir))
		})
	}
}
