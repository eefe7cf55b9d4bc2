package process_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/nodeflow/pkg/adapters/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()

	t.Run("YAML", func(t *testing.T) {
		path := filepath.Join(dir, "nodes.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
nodes:
  - name: FluxGuidance
    category: advanced/conditioning/flux
    command: ./guidance.sh
    operations: [append]
    env:
      MODE: fast
`), 0644))

		nodes, err := process.LoadManifest(path)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, "FluxGuidance", nodes[0].Name)
		assert.Equal(t, []string{"append"}, nodes[0].Operations)
		assert.Equal(t, "fast", nodes[0].Environment["MODE"])
	})

	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(dir, "nodes.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"nodes":[{"name":"EmptySD3LatentImage","command":"python3","args":["latent.py"]}]}`), 0644))

		nodes, err := process.LoadManifest(path)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, []string{"latent.py"}, nodes[0].Args)
	})

	t.Run("Rejects Incomplete Entries", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("nodes:\n  - name: NoCommand\n"), 0644))

		_, err := process.LoadManifest(path)
		assert.Error(t, err)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := process.LoadManifest(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestFindManifest(t *testing.T) {
	dir := t.TempDir()
	_, ok := process.FindManifest(dir)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "nodes.json"), []byte(`{}`), 0644))
	path, ok := process.FindManifest(dir)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "nodes.json"), path)
}
