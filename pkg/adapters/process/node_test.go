package process_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aretw0/nodeflow/pkg/adapters/process"
	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts require a POSIX sh")
	}
}

func shNode(name, script string, ops ...string) *process.Node {
	return process.NewNode(process.NodeConfig{
		Name:       name,
		Command:    "sh",
		Args:       []string{"-c", script},
		Operations: ops,
	}, os.TempDir())
}

func TestNode_Invoke(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()

	t.Run("JSON Array Becomes Sequence", func(t *testing.T) {
		n := shNode("Loader", `echo '["model", "clip", "vae"]'`)
		out, err := n.Invoke(ctx, "load", nil)
		require.NoError(t, err)

		v, err := out.At(1)
		require.NoError(t, err)
		assert.Equal(t, "clip", v)
	})

	t.Run("JSON Object Becomes Record", func(t *testing.T) {
		n := shNode("Combine", `echo '{"ui": {}, "result": [42]}'`)
		out, err := n.Invoke(ctx, "combine", nil)
		require.NoError(t, err)
		assert.True(t, out.IsRecord())

		v, err := out.At(0)
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)
	})

	t.Run("Plain Text Becomes Single Item", func(t *testing.T) {
		n := shNode("Text", `echo "  hello  "`)
		out, err := n.Invoke(ctx, "run", nil)
		require.NoError(t, err)
		assert.Equal(t, []any{"hello"}, out.Items())
	})

	t.Run("Passes Arguments via Env Vars", func(t *testing.T) {
		n := shNode("Env", `echo "$NODEFLOW_OP:$NODEFLOW_ARG_MSG:$NODEFLOW_ARG_OPTS"`)
		out, err := n.Invoke(ctx, "encode", domain.Kwargs{
			"msg":  "SecretMessage",
			"opts": map[string]any{"k": 1},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{`encode:SecretMessage:{"k":1}`}, out.Items())
	})

	t.Run("Passes Kwargs JSON on Stdin", func(t *testing.T) {
		n := shNode("Stdin", `cat`)
		out, err := n.Invoke(ctx, "run", domain.Kwargs{"width": 1024})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"width": int64(1024)}, out.Fields())
	})

	t.Run("Numbers Keep Full Precision", func(t *testing.T) {
		n := shNode("SeedGen", `echo '[18446744073709551557, -7, 0.5, {"big": 9007199254740993}]'`)
		out, err := n.Invoke(ctx, "get", nil)
		require.NoError(t, err)

		seed, err := out.At(0)
		require.NoError(t, err)
		assert.Equal(t, uint64(18446744073709551557), seed)

		assert.Equal(t, []any{
			uint64(18446744073709551557),
			int64(-7),
			0.5,
			map[string]any{"big": int64(9007199254740993)},
		}, out.Items())
	})

	t.Run("Non-Zero Exit Is An Error", func(t *testing.T) {
		n := shNode("Broken", `echo "model missing" >&2; exit 3`)
		_, err := n.Invoke(ctx, "run", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model missing")
	})

	t.Run("Undeclared Operation", func(t *testing.T) {
		n := shNode("Strict", `echo ok`, "load")
		_, err := n.Invoke(ctx, "save", nil)
		assert.ErrorIs(t, err, domain.ErrUnknownOperation)
	})
}

func TestNode_RelativeCommandResolvesAgainstPluginDir(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	script := filepath.Join(dir, "run.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\npwd\n"), 0755))

	nt := process.NodeType(process.NodeConfig{Name: "Pwd", Command: "./run.sh"}, dir)
	assert.Equal(t, dir, nt.Source)

	node, err := nt.New()
	require.NoError(t, err)

	out, err := node.Invoke(context.Background(), "run", nil)
	require.NoError(t, err)

	got, err := out.At(0)
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got.(string))
	require.NoError(t, err)
	assert.Equal(t, want, gotResolved)
}

func TestNode_ContextCancel(t *testing.T) {
	skipOnWindows(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := shNode("Slow", `sleep 5`).Invoke(ctx, "run", nil)
	assert.Error(t, err)
}
