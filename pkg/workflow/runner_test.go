package workflow_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/aretw0/nodeflow/pkg/registry"
	"github.com/aretw0/nodeflow/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeType(name string, fn domain.NodeFunc, ops ...string) domain.NodeType {
	return domain.NodeType{
		Name:       name,
		Operations: ops,
		New:        func() (domain.Node, error) { return fn, nil },
	}
}

// testRegistry holds a Loader whose load() returns a 3-element sequence, a
// Combine whose combine(x) returns {"result": [x*2]}, and a Sampler echoing its seed.
func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()

	require.NoError(t, reg.Register(nodeType("Loader", func(ctx context.Context, op string, kw domain.Kwargs) (domain.Bundle, error) {
		return domain.Seq(21, 5, 9), nil
	}, "load")))

	require.NoError(t, reg.Register(nodeType("Combine", func(ctx context.Context, op string, kw domain.Kwargs) (domain.Bundle, error) {
		x, ok := kw["x"].(int)
		if !ok {
			return domain.Bundle{}, errors.New("x must be an int")
		}
		return domain.Record(map[string]any{"result": []any{x * 2}}), nil
	}, "combine")))

	require.NoError(t, reg.Register(nodeType("Sampler", func(ctx context.Context, op string, kw domain.Kwargs) (domain.Bundle, error) {
		return domain.Seq(kw["seed"]), nil
	}, "sample")))

	require.NoError(t, reg.Register(nodeType("Broken", func(ctx context.Context, op string, kw domain.Kwargs) (domain.Bundle, error) {
		return domain.Bundle{}, errors.New("out of memory")
	})))

	reg.Seal()
	return reg
}

func loaderCombine() *domain.Workflow {
	return &domain.Workflow{
		Name: "loader-combine",
		Instances: []domain.Instance{
			{ID: "loader", Type: "Loader"},
			{ID: "combine", Type: "Combine"},
		},
		Setup: []domain.Step{
			{ID: "loaded", Instance: "loader", Operation: "load"},
		},
		Body: []domain.Step{
			{ID: "combined", Instance: "combine", Operation: "combine", Inputs: map[string]domain.Input{
				"x": domain.From("loaded", 0),
			}},
			{ID: "again", Instance: "combine", Operation: "combine", Inputs: map[string]domain.Input{
				"x": domain.From("combined", 0),
			}},
		},
	}
}

func TestRunner_EndToEnd(t *testing.T) {
	var outputs = map[string]domain.Bundle{}
	hooks := domain.RunHooks{
		OnStepFinish: func(ctx context.Context, e *domain.StepEvent) {
			require.NotNil(t, e.Output)
			outputs[e.StepID] = *e.Output
		},
	}

	r := workflow.NewRunner(testRegistry(t), workflow.WithHooks(hooks))
	rec, err := r.Run(context.Background(), loaderCombine())
	require.NoError(t, err)

	loaded, err := outputs["loaded"].At(0)
	require.NoError(t, err)
	combined, err := outputs["combined"].At(0)
	require.NoError(t, err)
	assert.Equal(t, loaded.(int)*2, combined)

	again, err := outputs["again"].At(0)
	require.NoError(t, err)
	assert.Equal(t, 84, again)

	assert.Equal(t, domain.RunCompleted, rec.Status)
	assert.NotEmpty(t, rec.ID)
	require.Len(t, rec.Steps, 3)
	assert.Equal(t, "Combine", rec.Steps[1].NodeType)
}

func TestRunner_SeedsAreFreshPerRun(t *testing.T) {
	wf := &domain.Workflow{
		Name:      "seeded",
		Instances: []domain.Instance{{ID: "ks", Type: "Sampler"}},
		Body: []domain.Step{{ID: "sample", Instance: "ks", Operation: "sample", Inputs: map[string]domain.Input{
			"seed": domain.RandomSeed(),
		}}},
	}
	r := workflow.NewRunner(testRegistry(t))

	first, err := r.Run(context.Background(), wf)
	require.NoError(t, err)
	second, err := r.Run(context.Background(), wf)
	require.NoError(t, err)

	require.Len(t, first.Seeds, 1)
	require.Len(t, second.Seeds, 1)
	assert.NotEqual(t, first.Seeds[0].Value, second.Seeds[0].Value)
	assert.NotZero(t, first.Seeds[0].Value)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRunner_IterationsDrawNewSeeds(t *testing.T) {
	var n atomic.Uint64
	src := func() (uint64, error) { return n.Add(1), nil }

	var seen []any
	hooks := domain.RunHooks{OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
		seen = append(seen, e.Kwargs["seed"])
	}}

	wf := &domain.Workflow{
		Instances:  []domain.Instance{{ID: "ks", Type: "Sampler"}},
		Body:       []domain.Step{{ID: "s", Instance: "ks", Operation: "sample", Inputs: map[string]domain.Input{"seed": domain.RandomSeed()}}},
		Iterations: 3,
	}

	rec, err := workflow.NewRunner(testRegistry(t), workflow.WithSeedSource(src), workflow.WithHooks(hooks)).
		Run(context.Background(), wf)
	require.NoError(t, err)

	assert.Equal(t, []any{uint64(1), uint64(2), uint64(3)}, seen)
	require.Len(t, rec.Seeds, 3)
	assert.Equal(t, 2, rec.Seeds[2].Iteration)
}

func TestRunner_NodeErrorAbortsRun(t *testing.T) {
	wf := loaderCombine()
	wf.Instances = append(wf.Instances, domain.Instance{ID: "broken", Type: "Broken"})
	wf.Body = append([]domain.Step{{ID: "boom", Instance: "broken", Operation: "run"}}, wf.Body...)

	var finished *domain.RunEvent
	hooks := domain.RunHooks{OnRunFinish: func(ctx context.Context, e *domain.RunEvent) { finished = e }}

	rec, err := workflow.NewRunner(testRegistry(t), workflow.WithHooks(hooks)).Run(context.Background(), wf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step boom (Broken.run)")
	assert.Contains(t, err.Error(), "out of memory")

	require.NotNil(t, rec)
	assert.Equal(t, domain.RunFailed, rec.Status)
	assert.Len(t, rec.Steps, 2, "no step runs after the failure")
	require.NotNil(t, finished)
	assert.Error(t, finished.Err)
}

func TestRunner_AddressingErrorsPropagate(t *testing.T) {
	wf := loaderCombine()
	wf.Body[0].Inputs["x"] = domain.From("loaded", 3)

	_, err := workflow.NewRunner(testRegistry(t)).Run(context.Background(), wf)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
}

func TestRunner_UnknownNodeType(t *testing.T) {
	wf := loaderCombine()
	wf.Instances[0].Type = "CheckpointLoaderSimple"

	rec, err := workflow.NewRunner(testRegistry(t)).Run(context.Background(), wf)
	assert.ErrorIs(t, err, domain.ErrNodeTypeNotFound)
	assert.Empty(t, rec.Steps, "no instance is created lazily")
}

func TestRunner_UndeclaredOperation(t *testing.T) {
	wf := loaderCombine()
	wf.Setup[0].Operation = "unload"

	_, err := workflow.NewRunner(testRegistry(t)).Run(context.Background(), wf)
	assert.ErrorIs(t, err, domain.ErrUnknownOperation)
}

func TestRunner_SeedSourceFailure(t *testing.T) {
	boom := errors.New("entropy exhausted")
	wf := &domain.Workflow{
		Instances: []domain.Instance{{ID: "ks", Type: "Sampler"}},
		Body:      []domain.Step{{ID: "s", Instance: "ks", Operation: "sample", Inputs: map[string]domain.Input{"seed": domain.RandomSeed()}}},
	}
	_, err := workflow.NewRunner(testRegistry(t), workflow.WithSeedSource(func() (uint64, error) { return 0, boom })).
		Run(context.Background(), wf)
	assert.ErrorIs(t, err, boom)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := workflow.NewRunner(testRegistry(t)).Run(ctx, loaderCombine())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.RunFailed, rec.Status)
}

func TestRunner_InvalidWorkflow(t *testing.T) {
	rec, err := workflow.NewRunner(testRegistry(t)).Run(context.Background(), &domain.Workflow{
		Instances: []domain.Instance{{ID: "a", Type: "Loader"}},
		Body:      []domain.Step{{ID: "s", Instance: "missing", Operation: "load"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidWorkflow)
	assert.Nil(t, rec)
}

func TestRunner_RecordsArtifacts(t *testing.T) {
	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(nodeType("Saver", func(ctx context.Context, op string, kw domain.Kwargs) (domain.Bundle, error) {
		domain.RecordArtifact(ctx, "ComfyUI_00001_.png")
		return domain.Record(map[string]any{"result": []any{"ComfyUI_00001_.png"}}), nil
	})))

	rec, err := workflow.NewRunner(reg).Run(context.Background(), &domain.Workflow{
		Instances: []domain.Instance{{ID: "save", Type: "Saver"}},
		Body:      []domain.Step{{ID: "saved", Instance: "save", Operation: "save_images"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ComfyUI_00001_.png"}, rec.Artifacts)
}

func TestRandomSeed(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := 0; i < 10; i++ {
		seed, err := workflow.RandomSeed()
		require.NoError(t, err)
		assert.NotZero(t, seed)
		seen[seed] = true
	}
	assert.Greater(t, len(seen), 5)
}
