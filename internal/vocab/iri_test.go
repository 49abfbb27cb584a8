package vocab

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	base, err := url.Parse("https://example.org/site/")
	require.NoError(t, err)

	tests := []struct {
		ref  string
		want string
	}{
		{"http://www.w3.org/2000/01/rdf-schema#", "http://www.w3.org/2000/01/rdf-schema#"},
		{"ns#", "https://example.org/site/ns#"},
		{"/sparql", "https://example.org/sparql"},
		{"page/", "https://example.org/site/page/"},
		{"#", "https://example.org/site/#"},
		{"", "https://example.org/site/"},
	}
	for _, tt := range tests {
		got, err := Resolve(base, tt.ref)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Resolve(%q)", tt.ref)
	}

	got, err := Resolve(nil, "relative")
	require.NoError(t, err)
	assert.Equal(t, "relative", got)

	_, err = Resolve(base, "%zz")
	assert.Error(t, err)
}
