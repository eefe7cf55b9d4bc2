package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		run := domain.NewRunRecord(runID, "contract")
		run.Seeds = []domain.SeedRecord{{Step: "sample", Input: "seed", Value: 1 << 63}}
		run.Steps = []domain.StepRecord{{ID: "sample", NodeType: "KSampler", Operation: "sample"}}
		run.Finish(nil)

		err := store.Save(ctx, run)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, run.ID, loaded.ID)
		assert.Equal(t, domain.RunCompleted, loaded.Status)
		require.Len(t, loaded.Seeds, 1)
		assert.Equal(t, uint64(1<<63), loaded.Seeds[0].Value)
		require.Len(t, loaded.Steps, 1)
		assert.Equal(t, "KSampler", loaded.Steps[0].NodeType)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		run := domain.NewRunRecord(runID, "contract")
		run.Finish(errors.New("boom"))
		require.NoError(t, store.Save(ctx, run))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunFailed, loaded.Status)
		assert.Equal(t, "boom", loaded.Error)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewRunRecord(runID, "contract")))

		err := store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, domain.NewRunRecord(id1, "contract"))
		_ = store.Save(ctx, domain.NewRunRecord(id2, "contract"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}

// RunArtifactStoreContract verifies the naming and round-trip guarantees of an ArtifactStore.
func RunArtifactStoreContract(t *testing.T, store ArtifactStore) {
	ctx := context.Background()

	t.Run("Put Assigns Increasing Names", func(t *testing.T) {
		k1, err := store.Put(ctx, "contract/img", "png", []byte("one"))
		require.NoError(t, err)
		k2, err := store.Put(ctx, "contract/img", "png", []byte("two"))
		require.NoError(t, err)

		assert.Equal(t, "contract/img_00001_.png", k1)
		assert.Equal(t, "contract/img_00002_.png", k2)

		data, err := store.Get(ctx, k2)
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), data)
	})

	t.Run("Prefixes Are Independent", func(t *testing.T) {
		k, err := store.Put(ctx, "contract/other", "txt", []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, "contract/other_00001_.txt", k)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "contract/missing_00001_.png")
		assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
	})
}
