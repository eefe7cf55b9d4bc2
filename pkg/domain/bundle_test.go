package domain_test

import (
	"testing"

	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundle_At_Sequence(t *testing.T) {
	b := domain.Seq("model", "clip", "vae")

	for i, want := range []string{"model", "clip", "vae"} {
		got, err := domain.ValueAt(b, i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	t.Run("Out Of Range Is Not Masked", func(t *testing.T) {
		_, err := b.At(3)
		assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)

		_, err = b.At(-1)
		assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	})
}

func TestBundle_At_RecordFallback(t *testing.T) {
	b := domain.Record(map[string]any{
		"ui":     map[string]any{"images": []string{"a.png"}},
		"result": []any{"latent", 7},
	})

	got, err := b.At(0)
	require.NoError(t, err)
	assert.Equal(t, "latent", got)

	got, err = b.At(1)
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	t.Run("Fallback Out Of Range Propagates", func(t *testing.T) {
		_, err := b.At(2)
		assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
		assert.NotErrorIs(t, err, domain.ErrMissingKey)
	})
}

func TestBundle_At_RecordPositionalKeyWins(t *testing.T) {
	b := domain.Record(map[string]any{
		"0":      "direct",
		"result": []any{"fallback"},
	})

	got, err := b.At(0)
	require.NoError(t, err)
	assert.Equal(t, "direct", got)
}

func TestBundle_At_RecordWithoutResult(t *testing.T) {
	b := domain.Record(map[string]any{"ui": "preview"})

	_, err := b.At(0)
	assert.ErrorIs(t, err, domain.ErrMissingKey)
}

func TestBundle_At_ResultShapes(t *testing.T) {
	t.Run("Typed Slice", func(t *testing.T) {
		b := domain.Record(map[string]any{"result": []int{4, 5}})
		got, err := b.At(1)
		require.NoError(t, err)
		assert.Equal(t, 5, got)
	})

	t.Run("Nested Sequence Bundle", func(t *testing.T) {
		b := domain.Record(map[string]any{"result": domain.Seq("x")})
		got, err := b.At(0)
		require.NoError(t, err)
		assert.Equal(t, "x", got)
	})

	t.Run("Scalar Result", func(t *testing.T) {
		b := domain.Record(map[string]any{"result": 42})
		_, err := b.At(0)
		assert.ErrorIs(t, err, domain.ErrNotSequence)
	})
}

func TestNodeType_Supports(t *testing.T) {
	open := domain.NodeType{Name: "Any"}
	assert.True(t, open.Supports("whatever"))

	strict := domain.NodeType{Name: "Loader", Operations: []string{"load"}}
	assert.True(t, strict.Supports("load"))
	assert.False(t, strict.Supports("save"))
}
