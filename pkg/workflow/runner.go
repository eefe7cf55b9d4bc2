package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/aretw0/nodeflow/pkg/registry"
	"github.com/google/uuid"
)

// Runner instantiates the nodes of a workflow and invokes its steps in order.
// A Runner holds no per-run state and may be reused.
type Runner struct {
	Registry *registry.Registry
	Hooks    domain.RunHooks
	Seeds    SeedSource
	Logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithHooks sets the lifecycle callbacks.
func WithHooks(hooks domain.RunHooks) Option {
	return func(r *Runner) {
		r.Hooks = hooks
	}
}

// WithSeedSource replaces RandomSeed.
func WithSeedSource(src SeedSource) Option {
	return func(r *Runner) {
		r.Seeds = src
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// NewRunner creates a runner resolving node types from reg.
func NewRunner(reg *registry.Registry, opts ...Option) *Runner {
	r := &Runner{
		Registry: reg,
		Seeds:    RandomSeed,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run is the state of one execution.
type run struct {
	*Runner
	wf        *domain.Workflow
	record    *domain.RunRecord
	instances map[string]domain.Node
	outputs   map[string]domain.Bundle
}

// Run validates wf and executes it once: setup, then body per iteration.
// The first node error aborts the run. The returned record is non-nil whenever
// validation passed, including on failure.
func (r *Runner) Run(ctx context.Context, wf *domain.Workflow) (*domain.RunRecord, error) {
	if err := Validate(wf); err != nil {
		return nil, err
	}

	rec := domain.NewRunRecord(uuid.NewString(), wf.Name)
	ctx = domain.WithArtifactRecorder(ctx, func(key string) {
		rec.Artifacts = append(rec.Artifacts, key)
	})

	x := &run{
		Runner:    r,
		wf:        wf,
		record:    rec,
		instances: make(map[string]domain.Node, len(wf.Instances)),
		outputs:   make(map[string]domain.Bundle),
	}

	if r.Hooks.OnRunStart != nil {
		r.Hooks.OnRunStart(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: rec.StartedAt, Type: domain.EventRunStart, RunID: rec.ID},
			Workflow:  wf.Name,
		})
	}
	r.Logger.Info("run started", "run_id", rec.ID, "workflow", wf.Name, "iterations", wf.RunCount())

	err := x.execute(ctx)
	rec.Finish(err)

	if r.Hooks.OnRunFinish != nil {
		r.Hooks.OnRunFinish(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: rec.FinishedAt, Type: domain.EventRunFinish, RunID: rec.ID},
			Workflow:  wf.Name,
			Duration:  rec.FinishedAt.Sub(rec.StartedAt),
			Err:       err,
		})
	}

	if err != nil {
		r.Logger.Error("run failed", "run_id", rec.ID, "error", err)
		return rec, err
	}
	r.Logger.Info("run finished", "run_id", rec.ID, "artifacts", len(rec.Artifacts),
		"duration", rec.FinishedAt.Sub(rec.StartedAt))
	return rec, nil
}

func (x *run) execute(ctx context.Context) error {
	for _, inst := range x.wf.Instances {
		node, err := x.Registry.New(inst.Type)
		if err != nil {
			return fmt.Errorf("instance %s: %w", inst.ID, err)
		}
		x.instances[inst.ID] = node
	}

	for _, step := range x.wf.Setup {
		if err := x.step(ctx, step, 0); err != nil {
			return err
		}
	}
	for i := 0; i < x.wf.RunCount(); i++ {
		for _, step := range x.wf.Body {
			if err := x.step(ctx, step, i); err != nil {
				return err
			}
		}
	}
	return nil
}

func (x *run) step(ctx context.Context, step domain.Step, iteration int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	inst, _ := x.wf.Instance(step.Instance)
	fail := func(err error) error {
		return fmt.Errorf("step %s (%s.%s): %w", step.ID, inst.Type, step.Operation, err)
	}

	kw, err := x.kwargs(step, iteration)
	if err != nil {
		return fail(err)
	}

	ev := &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepStart, RunID: x.record.ID},
		StepID:    step.ID,
		NodeType:  inst.Type,
		Operation: step.Operation,
		Iteration: iteration,
		Kwargs:    kw,
	}
	if x.Hooks.OnStepStart != nil {
		x.Hooks.OnStepStart(ctx, ev)
	}
	x.Logger.Debug("step started", "run_id", x.record.ID, "step", step.ID, "node", inst.Type, "op", step.Operation, "iteration", iteration)

	start := time.Now()
	out, err := x.instances[step.Instance].Invoke(ctx, step.Operation, kw)
	elapsed := time.Since(start)

	sr := domain.StepRecord{
		ID:        step.ID,
		NodeType:  inst.Type,
		Operation: step.Operation,
		Iteration: iteration,
		Duration:  elapsed,
	}
	if err != nil {
		sr.Error = err.Error()
	}
	x.record.Steps = append(x.record.Steps, sr)

	finish := *ev
	finish.Timestamp = time.Now()
	finish.Type = domain.EventStepFinish
	finish.Duration = elapsed
	finish.Err = err
	if err == nil {
		finish.Output = &out
	}
	if x.Hooks.OnStepFinish != nil {
		x.Hooks.OnStepFinish(ctx, &finish)
	}

	if err != nil {
		return fail(err)
	}
	x.outputs[step.ID] = out
	x.Logger.Debug("step finished", "run_id", x.record.ID, "step", step.ID, "duration", elapsed)
	return nil
}

// kwargs resolves every input of step. Seeds are drawn fresh and recorded.
func (x *run) kwargs(step domain.Step, iteration int) (domain.Kwargs, error) {
	kw := make(domain.Kwargs, len(step.Inputs))
	for name, in := range step.Inputs {
		switch {
		case in.Seed:
			seed, err := x.Seeds()
			if err != nil {
				return nil, fmt.Errorf("input %s: %w", name, err)
			}
			x.record.Seeds = append(x.record.Seeds, domain.SeedRecord{
				Step: step.ID, Input: name, Iteration: iteration, Value: seed,
			})
			kw[name] = seed
		case in.From != nil:
			out, ok := x.outputs[in.From.Step]
			if !ok {
				return nil, fmt.Errorf("input %s: step %s has no output", name, in.From.Step)
			}
			v, err := out.At(in.From.Index)
			if err != nil {
				return nil, fmt.Errorf("input %s from %s[%d]: %w", name, in.From.Step, in.From.Index, err)
			}
			kw[name] = v
		default:
			kw[name] = in.Value
		}
	}
	return kw, nil
}
