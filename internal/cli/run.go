package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/nodeflow"
	"github.com/aretw0/nodeflow/internal/config"
	"github.com/aretw0/nodeflow/internal/presentation/tui"
	"github.com/aretw0/nodeflow/internal/telemetry"
	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/aretw0/nodeflow/pkg/registry"
	"github.com/aretw0/nodeflow/pkg/workflow"
)

// RunOptions configures a CLI run.
type RunOptions struct {
	Config *config.Config
	// WorkflowPath overrides Config.Workflow. Both empty means the embedded workflow.
	WorkflowPath string
	// DryRun stops after bootstrap, plugin loading and validation.
	DryRun bool
	Debug  bool
	Quiet  bool
	Out    io.Writer
}

// RunWorkflow bootstraps, loads plugins and executes one workflow.
func RunWorkflow(ctx context.Context, opts RunOptions) error {
	cfg := opts.Config
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	logger, logCloser, err := createLogger(cfg, opts.Debug)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	wf, err := loadWorkflow(opts.WorkflowPath, cfg)
	if err != nil {
		return err
	}

	var extra []nodeflow.Option
	var metrics *telemetry.Metrics
	if cfg.MetricsAddr != "" {
		metrics = telemetry.NewMetrics()
		extra = append(extra, nodeflow.WithRunHooks(metrics.Hooks()))
	}

	drv, closer, err := createDriver(cfg, logger, opts.Debug, extra...)
	if err != nil {
		return err
	}
	defer closer.Close()
	defer drv.Close()

	if !opts.Quiet {
		tui.PrintBanner(out)
	}

	env, err := drv.Bootstrap(ctx)
	if err != nil {
		return err
	}
	if !opts.Quiet {
		if env.RuntimeRoot != "" {
			printSystemMessage(out, "Runtime root: %s", env.RuntimeRoot)
		}
		if env.ExtraConfigPath != "" {
			printSystemMessage(out, "Extra paths: %s", env.ExtraConfigPath)
		}
	}

	if err := drv.LoadPlugins(ctx); err != nil {
		return err
	}
	if err := CheckNodeTypes(wf, drv.Registry()); err != nil {
		return err
	}

	if opts.DryRun {
		if !opts.Quiet {
			printSystemMessage(out, "Workflow %q is valid: %d node types, %d setup steps, %d body steps x%d.",
				wf.Name, len(drv.Registry().Names()), len(wf.Setup), len(wf.Body), wf.RunCount())
		}
		return nil
	}

	if metrics != nil {
		srvCtx, stop := context.WithCancel(ctx)
		defer stop()
		go func() {
			if err := telemetry.Serve(srvCtx, cfg.MetricsAddr, metrics.Handler(), logger); err != nil {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	rec, runErr := drv.Run(ctx, wf)
	if !opts.Quiet && rec != nil {
		printRunSummary(out, rec)
	}
	return handleExecutionError(runErr)
}

// loadWorkflow reads the workflow file and applies the iteration override.
func loadWorkflow(path string, cfg *config.Config) (*domain.Workflow, error) {
	if path == "" {
		path = cfg.Workflow
	}

	var wf *domain.Workflow
	if path == "" {
		wf = workflow.Default()
	} else {
		loaded, err := workflow.Load(path)
		if err != nil {
			return nil, err
		}
		wf = loaded
	}

	if cfg.Iterations > 0 {
		wf.Iterations = cfg.Iterations
	}
	return wf, workflow.Validate(wf)
}

// CheckNodeTypes reports every instance type missing from reg.
func CheckNodeTypes(wf *domain.Workflow, reg *registry.Registry) error {
	var missing []string
	for _, inst := range wf.Instances {
		if _, ok := reg.Lookup(inst.Type); !ok && !slices.Contains(missing, inst.Type) {
			missing = append(missing, inst.Type)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrNodeTypeNotFound, strings.Join(missing, ", "))
}

func printRunSummary(w io.Writer, rec *domain.RunRecord) {
	ok := rec.Status == domain.RunCompleted
	fmt.Fprintf(w, "%s run %s (%s) in %s\n",
		tui.Status(ok, strings.ToUpper(string(rec.Status))), rec.ID, rec.Workflow,
		rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond))
	for _, s := range rec.Seeds {
		fmt.Fprintf(w, "  seed %s.%s[%d] = %d\n", s.Step, s.Input, s.Iteration, s.Value)
	}
	for _, key := range rec.Artifacts {
		fmt.Fprintf(w, "  saved %s\n", key)
	}
	if rec.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", rec.Error)
	}
}
