package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://query.wikidata.org/sparql", cfg.Source.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.SourceTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.BatchDelay())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "9090"

[source]
endpoint = "http://localhost:9999/sparql"

[crawl]
batch_delay_ms = 100

[crawl.depth.2]
max_nodes_per_layer = 7
batch_size = 3
result_limit = 50
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://localhost:9999/sparql", cfg.Source.Endpoint)
	assert.Equal(t, 100*time.Millisecond, cfg.BatchDelay())

	table := cfg.DepthTable()
	assert.Equal(t, 7, table.Level(2).MaxNodesPerLayer)
	assert.Equal(t, 3, table.Level(2).BatchSize)
	// Untouched levels keep the defaults.
	assert.Equal(t, 100, table.Level(1).MaxNodesPerLayer)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("SPARQL_ENDPOINT", "http://example.test/sparql")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "http://example.test/sparql", cfg.Source.Endpoint)
}
