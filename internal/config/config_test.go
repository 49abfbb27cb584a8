package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDescriptor(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFileName), []byte(content), 0o600))
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeDescriptor(t, `
BaseURI: https://example.org/some/path
DefaultLanguage: EN-gb
CleanOutputDirectory: true
Prefixes:
  ex: https://example.org/ns#
  local: /vocab/
ExcludeFiles:
  - "drafts/**"
IncludeFiles:
  - ".well-known/**"
CompressFiles:
  - "**/*.css"
FileTypes:
  .webmanifest: application/manifest+json
  TXT: text/plain; charset=utf-8
`)

	s, err := Load(dir, filepath.Join(dir, "out"))
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/", s.BaseURI())
	assert.Equal(t, "example.org", s.Host())
	assert.Equal(t, "en-gb", s.DefaultLanguage())
	assert.True(t, s.CleanOutputDirectory())
	assert.Equal(t, "https://example.org/sparql", s.SPARQLEndpoint())
	assert.Equal(t, "/sparql", s.SPARQLEndpointPath())
	assert.Equal(t, map[string]string{
		"ex":    "https://example.org/ns#",
		"local": "https://example.org/vocab/",
	}, s.Prefixes())
	assert.Equal(t, []string{"drafts/**"}, s.ExcludeFiles())
	assert.Equal(t, []string{".well-known/**"}, s.IncludeFiles())
	assert.Equal(t, []string{"**/*.css"}, s.CompressFiles())
	assert.Equal(t, map[string]string{
		"webmanifest": "application/manifest+json",
		"txt":         "text/plain; charset=utf-8",
	}, s.FileTypes())
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := writeDescriptor(t, `
BaseURI: https://example.org/
DefaultLanguage: en
SPARQLEndpoint: ${RDFPUB_TEST_ENDPOINT}
`)
	t.Setenv("RDFPUB_SITE_DEFAULTLANGUAGE", "de")
	t.Setenv("RDFPUB_TEST_ENDPOINT", "/query")

	s, err := Load(dir, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "de", s.DefaultLanguage())
	assert.Equal(t, "https://example.org/query", s.SPARQLEndpoint())
}

func TestLoad_PreflightErrors(t *testing.T) {
	t.Run("missing input directory", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope"), t.TempDir())
		assert.ErrorIs(t, err, ErrInputNotFound)
	})

	t.Run("missing descriptor", func(t *testing.T) {
		_, err := Load(t.TempDir(), t.TempDir())
		assert.ErrorIs(t, err, ErrMissingDescriptor)
	})

	t.Run("input is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, nil, 0o600))
		_, err := Load(path, t.TempDir())
		assert.ErrorIs(t, err, ErrInputNotFound)
	})
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		desc    Descriptor
		wantErr error
	}{
		{
			name:    "missing language",
			desc:    Descriptor{BaseURI: "https://example.org"},
			wantErr: ErrInvalidLanguage,
		},
		{
			name:    "malformed language",
			desc:    Descriptor{BaseURI: "https://example.org", DefaultLanguage: "english_language"},
			wantErr: ErrInvalidLanguage,
		},
		{
			name:    "primary subtag too long",
			desc:    Descriptor{BaseURI: "https://example.org", DefaultLanguage: "toolonglanguage"},
			wantErr: ErrInvalidLanguage,
		},
		{
			name:    "subtag of nine characters",
			desc:    Descriptor{BaseURI: "https://example.org", DefaultLanguage: "en-abcdefghi"},
			wantErr: ErrInvalidLanguage,
		},
		{
			name: "eight letter subtags",
			desc: Descriptor{BaseURI: "https://example.org", DefaultLanguage: "abcdefgh-language"},
		},
		{
			name:    "missing base",
			desc:    Descriptor{DefaultLanguage: "en"},
			wantErr: ErrInvalidBaseURI,
		},
		{
			name:    "non http base",
			desc:    Descriptor{BaseURI: "ftp://example.org", DefaultLanguage: "en"},
			wantErr: ErrInvalidBaseURI,
		},
		{
			name: "valid with subtags",
			desc: Descriptor{BaseURI: "http://example.org", DefaultLanguage: "zh-Hant-TW"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("in", "out", tt.desc)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNew_RelativeValuesUseConfiguredBase(t *testing.T) {
	s, err := New("in", "out", Descriptor{
		BaseURI:         "https://example.org/site/",
		DefaultLanguage: "en",
		SPARQLEndpoint:  "query",
		Prefixes: map[string]string{
			"rel":  "vocab/",
			"root": "/terms#",
			"abs":  "https://other.example/ns#",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/", s.BaseURI())
	assert.Equal(t, "https://example.org/site/query", s.SPARQLEndpoint())
	assert.Equal(t, "/site/query", s.SPARQLEndpointPath())
	assert.Equal(t, map[string]string{
		"rel":  "https://example.org/site/vocab/",
		"root": "https://example.org/terms#",
		"abs":  "https://other.example/ns#",
	}, s.Prefixes())
}

func TestSettings_AccessorsReturnCopies(t *testing.T) {
	s, err := New("in", "out", Descriptor{
		BaseURI:         "https://example.org",
		DefaultLanguage: "en",
		Prefixes:        map[string]string{"ex": "https://example.org/ns#"},
		ExcludeFiles:    []string{"a"},
	})
	require.NoError(t, err)

	s.Prefixes()["ex"] = "changed"
	s.ExcludeFiles()[0] = "changed"

	assert.Equal(t, "https://example.org/ns#", s.Prefixes()["ex"])
	assert.Equal(t, "a", s.ExcludeFiles()[0])
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RDFPUB_TEST_HOST", "example.net")

	assert.Equal(t, "https://example.net/", expandEnvVars("https://${RDFPUB_TEST_HOST}/"))
	assert.Equal(t, "${RDFPUB_TEST_UNSET_VAR}", expandEnvVars("${RDFPUB_TEST_UNSET_VAR}"))
}
