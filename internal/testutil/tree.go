package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rdfpub/generator/internal/config"
)

// WriteTree creates files below dir. Keys are slash-separated relative
// paths; a key ending in "/" creates an empty directory.
func WriteTree(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// ReadFile returns the content of a slash-separated path below dir.
func ReadFile(t testing.TB, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// NewSettings validates d for a build from in to out. Empty BaseURI and
// DefaultLanguage default to https://example.org/ and en.
func NewSettings(t testing.TB, in, out string, d config.Descriptor) *config.Settings {
	t.Helper()
	if d.BaseURI == "" {
		d.BaseURI = "https://example.org/"
	}
	if d.DefaultLanguage == "" {
		d.DefaultLanguage = "en"
	}
	s, err := config.New(in, out, d)
	require.NoError(t, err)
	return s
}
