package proxy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdfpub/generator/internal/config"
	"github.com/rdfpub/generator/internal/resource"
	"github.com/rdfpub/generator/internal/testutil"
)

func setup(t *testing.T, d config.Descriptor) (*Builder, *config.Settings, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out")
	s := testutil.NewSettings(t, t.TempDir(), out, d)
	b := New(s, testutil.NewTestLogger(t))
	require.NoError(t, b.Init(context.Background()))
	t.Cleanup(func() { b.Always(context.Background()) })
	return b, s, out
}

func TestInit_Boilerplate(t *testing.T) {
	_, _, out := setup(t, config.Descriptor{BaseURI: "https://data.example.com/site/", DefaultLanguage: "de"})

	conf := testutil.ReadFile(t, out, "nginx/nginx.conf")
	assert.Contains(t, conf, "server_name data.example.com;")
	assert.Contains(t, conf, `default "de";`)
	assert.NotContains(t, conf, "$SERVER_NAME")

	for _, name := range verbatim {
		assert.FileExists(t, filepath.Join(out, Dir, name))
	}
	assert.Empty(t, testutil.ReadFile(t, out, "nginx/"+LocationsFile))
	assert.Contains(t, testutil.ReadFile(t, out, "nginx/"+ConnegFile), "init_by_lua_block {")
}

func TestStaticRules(t *testing.T) {
	b, s, out := setup(t, config.Descriptor{
		CompressFiles: []string{"**/*.css"},
		FileTypes:     map[string]string{".woff2": "font/x-custom"},
	})
	ctx := context.Background()

	root := resource.New(s, "")
	assets := resource.New(s, "assets")
	for _, c := range []struct {
		r    *resource.Resource
		file string
	}{
		{root, "favicon.ico"},
		{assets, "site.css"},
		{assets, "font.woff2"},
		{assets, "blob.unknownext"},
		{assets, "data.ttl"},
		{assets, "index@en.hbs"},
	} {
		require.NoError(t, b.HandleResourceFile(ctx, c.r, resource.Classify(c.file)))
	}

	assert.Equal(t,
		"location = /favicon.ico { types { } default_type image/vnd.microsoft.icon; include static.nginx.conf; }\n"+
			"location = /assets/site.css { types { } default_type text/css; gzip on; include static.nginx.conf; }\n"+
			"location = /assets/font.woff2 { types { } default_type font/x-custom; include static.nginx.conf; }\n"+
			"location = /assets/blob.unknownext { include static.nginx.conf; }\n",
		testutil.ReadFile(t, out, "nginx/"+LocationsFile))
}

func TestResourceRules(t *testing.T) {
	b, s, out := setup(t, config.Descriptor{DefaultLanguage: "de"})
	ctx := context.Background()

	root := resource.New(s, "")
	root.SetHasData(true)
	root.AddIndexTemplate(resource.Classify("index@en.html"))
	root.AddIndexTemplate(resource.Classify("index@de.html"))

	docs := resource.New(s, "docs")
	docs.AddIndexTemplate(resource.Classify("index@de.hbs"))

	data := resource.New(s, "data")
	data.SetHasData(true)

	blank := resource.New(s, "blank")

	for _, r := range []*resource.Resource{docs, data, blank, root} {
		require.NoError(t, b.HandleFinishedResource(ctx, r))
	}
	require.NoError(t, b.Complete(ctx))

	assert.Equal(t, `location = /docs/index@de.html { include static.nginx.conf; }
location = /docs@de { set $lang "de"; set $target "/docs"; include lang.nginx.conf; }
location = /docs { include index-only.nginx.conf; }

location = /data/data.jsonld { include static.nginx.conf; }
location = /data/data.nt { include static.nginx.conf; }
location = /data/data.rdf { include static.nginx.conf; }
location = /data/data.ttl { include static.nginx.conf; }
location = /data { include data-only.nginx.conf; }

location = /data.jsonld { include static.nginx.conf; }
location = /data.nt { include static.nginx.conf; }
location = /data.rdf { include static.nginx.conf; }
location = /data.ttl { include static.nginx.conf; }
location = /index@de.html { include static.nginx.conf; }
location = /@de { set $lang "de"; set $target "/"; include lang.nginx.conf; }
location = /index@en.html { include static.nginx.conf; }
location = /@en { set $lang "en"; set $target "/"; include lang.nginx.conf; }
location = / { include resource.nginx.conf; }

location = /sparql { include sparql-endpoint.nginx.conf; include data-only.nginx.conf; }
location = /sparql/data.jsonld { include static.nginx.conf; }
location = /sparql/data.nt { include static.nginx.conf; }
location = /sparql/data.rdf { include static.nginx.conf; }
location = /sparql/data.ttl { include static.nginx.conf; }
`, testutil.ReadFile(t, out, "nginx/"+LocationsFile))

	conneg := testutil.ReadFile(t, out, "nginx/"+ConnegFile)
	assert.Contains(t, conneg, "  conneg.accept_language.register(\"languages/docs\",\"de\")\n"+
		"  conneg.accept_language.register(\"languages/\",\"de,en\")\n}")
}

func TestEndpointVisited(t *testing.T) {
	b, s, out := setup(t, config.Descriptor{SPARQLEndpoint: "/query"})
	ctx := context.Background()

	endpoint := resource.New(s, "query")
	require.NoError(t, b.HandleFinishedResource(ctx, endpoint))
	require.NoError(t, b.Complete(ctx))

	locations := testutil.ReadFile(t, out, "nginx/"+LocationsFile)
	assert.Contains(t, locations, "location = /query { include sparql-endpoint.nginx.conf; include data-only.nginx.conf; }\n\n")
	assert.Contains(t, locations, "location = /query/data.ttl { include static.nginx.conf; }\n")
	assert.Equal(t, 1, strings.Count(locations, "location = /query {"), "rules are not synthesized twice")
}

func TestTypeTable(t *testing.T) {
	table := NewTypeTable(map[string]string{"HTML": "application/xhtml+xml", ".log": "text/plain"})

	assert.Equal(t, "application/xhtml+xml", table.TypeOf("html"))
	assert.Equal(t, "text/plain", table.TypeOf(".LOG"))
	assert.Equal(t, "image/png", table.TypeOf("png"))
	assert.Equal(t, "", table.TypeOf(""))
	assert.Equal(t, "", table.TypeOf("no-such-extension"))
}

func TestAlways_WithoutInit(t *testing.T) {
	s := testutil.NewSettings(t, t.TempDir(), t.TempDir(), config.Descriptor{})
	New(s, nil).Always(context.Background())

	_, err := os.Stat(filepath.Join(s.OutputDir(), Dir))
	assert.True(t, os.IsNotExist(err))
}
