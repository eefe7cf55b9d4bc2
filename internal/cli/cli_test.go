package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/nodeflow/internal/config"
	"github.com/aretw0/nodeflow/pkg/adapters/file"
	"github.com/aretw0/nodeflow/pkg/adapters/memory"
	"github.com/aretw0/nodeflow/pkg/adapters/redis"
	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greetingWorkflow = `
name: greeting
iterations: 2
instances:
  - id: text
    type: PrimitiveString
  - id: save
    type: SaveImage
setup:
  - id: hello
    instance: text
    op: get
    inputs:
      value: hello
body:
  - id: saved
    instance: save
    op: save_images
    inputs:
      filename_prefix: greet
      images: {from: {step: hello, index: 0}}
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		RuntimeName:     "nodeflow-test-runtime-absent",
		ExtraConfigName: "nodeflow-test-config-absent.yaml",
		StartDir:        root,
		OutputDir:       filepath.Join(root, "output"),
		ArtifactBackend: config.BackendFile,
		RunStore:        config.BackendFile,
		RunStoreDir:     filepath.Join(root, "runs"),
		LogLevel:        "error",
		LogFormat:       "text",
	}
}

func writeWorkflow(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "greeting.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestCreateArtifactStore(t *testing.T) {
	cfg := testConfig(t)

	store, err := createArtifactStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &file.Artifacts{}, store)

	cfg.ArtifactBackend = config.BackendMemory
	store, err = createArtifactStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &memory.Artifacts{}, store)
}

func TestCreateRunStore(t *testing.T) {
	cfg := testConfig(t)

	store, locker, closer, err := createRunStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, store)
	assert.IsType(t, &memory.Locker{}, locker)
	assert.NoError(t, closer.Close())

	mr := miniredis.RunT(t)
	cfg.RunStore = config.BackendRedis
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	store, locker, closer, err = createRunStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &redis.Store{}, store)
	assert.IsType(t, &redis.Locker{}, locker)
	assert.NoError(t, closer.Close())
}

func TestCreateDriver_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.ArtifactBackend = "tape"

	_, _, err := createDriver(cfg, nil, false)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestRunWorkflow(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	err := RunWorkflow(context.Background(), RunOptions{
		Config:       cfg,
		WorkflowPath: writeWorkflow(t, greetingWorkflow),
		Out:          &out,
	})
	require.NoError(t, err)

	for _, name := range []string{"greet_00001_.txt", "greet_00002_.txt"} {
		data, err := os.ReadFile(filepath.Join(cfg.OutputDir, name))
		require.NoError(t, err, name)
		assert.Equal(t, "hello", string(data))
	}
	assert.Contains(t, out.String(), "saved greet_00002_.txt")

	var history bytes.Buffer
	require.NoError(t, History(context.Background(), cfg, &history))
	assert.Contains(t, history.String(), "greeting")
	assert.Contains(t, history.String(), string(domain.RunCompleted))
}

func TestRunWorkflow_IterationOverride(t *testing.T) {
	cfg := testConfig(t)
	cfg.Iterations = 3

	err := RunWorkflow(context.Background(), RunOptions{
		Config:       cfg,
		WorkflowPath: writeWorkflow(t, greetingWorkflow),
		Quiet:        true,
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(cfg.OutputDir, "greet_00003_.txt"))
	assert.NoError(t, err)
}

func TestRunWorkflow_DryRun(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	err := RunWorkflow(context.Background(), RunOptions{
		Config:       cfg,
		WorkflowPath: writeWorkflow(t, greetingWorkflow),
		DryRun:       true,
		Out:          &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `Workflow "greeting" is valid`)

	_, err = os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(err), "dry run must not write artifacts")
}

func TestRunWorkflow_MissingNodeTypes(t *testing.T) {
	cfg := testConfig(t)

	// The embedded workflow needs model nodes no plugin provides here.
	err := RunWorkflow(context.Background(), RunOptions{Config: cfg, DryRun: true, Quiet: true})
	assert.ErrorIs(t, err, domain.ErrNodeTypeNotFound)
	assert.ErrorContains(t, err, "CheckpointLoaderSimple")
}

func TestListAndDescribeNodes(t *testing.T) {
	cfg := testConfig(t)

	var list bytes.Buffer
	require.NoError(t, ListNodes(context.Background(), cfg, &list))
	assert.Contains(t, list.String(), "SaveImage")
	assert.Contains(t, list.String(), "PrimitiveInt")

	var desc bytes.Buffer
	require.NoError(t, DescribeNode(context.Background(), cfg, "SaveImage", &desc, nil))
	assert.Contains(t, desc.String(), "save_images")

	err := DescribeNode(context.Background(), cfg, "Nope", &desc, nil)
	assert.ErrorIs(t, err, domain.ErrNodeTypeNotFound)
}

func TestFindPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ComfyUI"), 0755))
	deep := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(deep, 0755))

	var out bytes.Buffer
	found, err := FindPath("ComfyUI", deep, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, filepath.Join(root, "ComfyUI")+"\n", out.String())
}

func TestGraph(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	require.NoError(t, Graph(context.Background(), cfg, writeWorkflow(t, greetingWorkflow), "", &out))
	assert.Contains(t, out.String(), `hello -- "0 -> images" --> saved`)

	err := Graph(context.Background(), cfg, writeWorkflow(t, greetingWorkflow), "missing-run", &out)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
