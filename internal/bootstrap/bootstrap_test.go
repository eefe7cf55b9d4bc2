package bootstrap_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/nodeflow/internal/bootstrap"
	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// layout creates root/<runtime>/ and root/work/deep and returns root and the deep directory.
func layout(t *testing.T, runtime string) (string, string) {
	t.Helper()
	root := t.TempDir()
	deep := filepath.Join(root, "work", "deep")
	require.NoError(t, os.MkdirAll(deep, 0755))
	if runtime != "" {
		require.NoError(t, os.Mkdir(filepath.Join(root, runtime), 0755))
	}
	return root, deep
}

func TestRun_RuntimeFound(t *testing.T) {
	root, deep := layout(t, "NodeflowRuntimeA")

	env, err := bootstrap.Run(context.Background(), bootstrap.Options{
		RuntimeName:     "NodeflowRuntimeA",
		ExtraConfigName: "nodeflow-absent-config.yaml",
		StartDir:        deep,
		SearchPath:      []string{"/opt/site"},
	})
	require.NoError(t, err)

	want := filepath.Join(root, "NodeflowRuntimeA")
	assert.Equal(t, want, env.RuntimeRoot)
	assert.Equal(t, []string{"/opt/site", want}, env.SearchPath)
	assert.Empty(t, env.ExtraConfigPath)
}

func TestRun_RuntimeAbsentLeavesSearchPath(t *testing.T) {
	_, deep := layout(t, "")
	base := []string{"/opt/site"}

	env, err := bootstrap.Run(context.Background(), bootstrap.Options{
		RuntimeName:     "NodeflowRuntimeMissing",
		ExtraConfigName: "nodeflow-absent-config.yaml",
		StartDir:        deep,
		SearchPath:      base,
	})
	require.NoError(t, err)
	assert.Empty(t, env.RuntimeRoot)
	assert.Equal(t, []string{"/opt/site"}, env.SearchPath)
	assert.Equal(t, []string{"/opt/site"}, base)
}

func TestRun_RuntimeFileIsIgnored(t *testing.T) {
	root, deep := layout(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(root, "NodeflowRuntimeFile"), nil, 0644))

	env, err := bootstrap.Run(context.Background(), bootstrap.Options{
		RuntimeName:     "NodeflowRuntimeFile",
		ExtraConfigName: "nodeflow-absent-config.yaml",
		StartDir:        deep,
	})
	require.NoError(t, err)
	assert.Empty(t, env.RuntimeRoot)
	assert.Empty(t, env.SearchPath)
}

func TestRun_AppliesExtraConfigThroughFallback(t *testing.T) {
	root, deep := layout(t, "NodeflowRuntimeB")
	cfg := filepath.Join(root, "work", "nodeflow-extra.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
comfyui:
  base_path: models
  checkpoints: checkpoints
  custom_nodes: |
    plugins
`), 0644))

	var buf bytes.Buffer
	env, err := bootstrap.Run(context.Background(), bootstrap.Options{
		RuntimeName:     "NodeflowRuntimeB",
		ExtraConfigName: "nodeflow-extra.yaml",
		StartDir:        deep,
		Logger:          slog.New(slog.NewTextHandler(&buf, nil)),
	})
	require.NoError(t, err)

	assert.Equal(t, cfg, env.ExtraConfigPath)
	assert.Equal(t, []string{filepath.Join(root, "work", "models", "checkpoints")}, env.FolderPaths["checkpoints"])
	assert.Equal(t, []string{filepath.Join(root, "work", "models", "plugins")}, env.FolderPaths[bootstrap.CustomNodesCategory])
	assert.Contains(t, buf.String(), "Looking in utils.extra_config instead")
}

func TestRun_ConfigAbsentSkipsLoaderResolution(t *testing.T) {
	_, deep := layout(t, "")

	_, err := bootstrap.Run(context.Background(), bootstrap.Options{
		RuntimeName:     "NodeflowRuntimeMissing",
		ExtraConfigName: "nodeflow-absent-config.yaml",
		StartDir:        deep,
		Importer:        bootstrap.SymbolTable{},
	})
	assert.NoError(t, err)
}

func TestRun_LoaderUnresolvable(t *testing.T) {
	root, deep := layout(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(root, "nodeflow-extra.yaml"), []byte("a: {}"), 0644))

	_, err := bootstrap.Run(context.Background(), bootstrap.Options{
		RuntimeName:     "NodeflowRuntimeMissing",
		ExtraConfigName: "nodeflow-extra.yaml",
		StartDir:        deep,
		Importer:        bootstrap.SymbolTable{},
	})
	assert.ErrorIs(t, err, domain.ErrSymbolNotFound)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := bootstrap.Run(ctx, bootstrap.Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveLoader(t *testing.T) {
	primaryCalled := false
	primary := bootstrap.ExtraPathLoader(func(string, *bootstrap.Environment) error {
		primaryCalled = true
		return nil
	})

	t.Run("Primary Wins", func(t *testing.T) {
		table := bootstrap.DefaultSymbols()
		table[bootstrap.PrimaryLoaderModule] = map[string]any{bootstrap.LoaderSymbol: primary}

		load, err := bootstrap.ResolveLoader(table, nil)
		require.NoError(t, err)
		require.NoError(t, load("x", &bootstrap.Environment{}))
		assert.True(t, primaryCalled)
	})

	t.Run("Plain Func Accepted", func(t *testing.T) {
		table := bootstrap.SymbolTable{
			bootstrap.FallbackLoaderModule: {
				bootstrap.LoaderSymbol: func(string, *bootstrap.Environment) error { return nil },
			},
		}
		_, err := bootstrap.ResolveLoader(table, nil)
		assert.NoError(t, err)
	})

	t.Run("Wrong Symbol Type", func(t *testing.T) {
		table := bootstrap.SymbolTable{
			bootstrap.PrimaryLoaderModule: {bootstrap.LoaderSymbol: "not a function"},
		}
		_, err := bootstrap.ResolveLoader(table, nil)
		assert.Error(t, err)
	})
}

func TestSymbolTable_Import(t *testing.T) {
	table := bootstrap.SymbolTable{"m": {"x": 1}}

	v, err := table.Import("m", "x")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = table.Import("m", "y")
	assert.ErrorIs(t, err, domain.ErrSymbolNotFound)
	_, err = table.Import("n", "x")
	assert.ErrorIs(t, err, domain.ErrSymbolNotFound)
}
