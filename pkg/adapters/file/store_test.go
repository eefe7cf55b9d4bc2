package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/nodeflow/pkg/adapters/file"
	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/aretw0/nodeflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunRunStoreContract(t, store)
}

func TestFileStore_ListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewRunRecord("r1", "wf")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	runs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, runs)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	runs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestFileArtifacts_Contract(t *testing.T) {
	store := file.NewArtifacts(t.TempDir())
	ports.RunArtifactStoreContract(t, store)
}

func TestFileArtifacts_ContinuesExistingCounter(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ComfyUI_00007_.png"), []byte("old"), 0644))

	store := file.NewArtifacts(root)
	key, err := store.Put(context.Background(), "ComfyUI", "png", []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, "ComfyUI_00008_.png", key)

	data, err := os.ReadFile(filepath.Join(root, key))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestFileArtifacts_RejectsEscape(t *testing.T) {
	store := file.NewArtifacts(t.TempDir())
	for _, prefix := range []string{"../evil", "/abs/path", ".."} {
		_, err := store.Put(context.Background(), prefix, "png", []byte("x"))
		assert.Error(t, err, prefix)
	}

	t.Run("Get", func(t *testing.T) {
		base := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(base, "secret.txt"), []byte("top secret"), 0o644))
		store := file.NewArtifacts(filepath.Join(base, "output"))

		for _, key := range []string{"../secret.txt", "sub/../../secret.txt", filepath.Join(base, "secret.txt"), ".."} {
			data, err := store.Get(context.Background(), key)
			assert.Error(t, err, key)
			assert.NotErrorIs(t, err, domain.ErrArtifactNotFound, key)
			assert.Nil(t, data, key)
		}
	})
}
