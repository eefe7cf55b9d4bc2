package nodeflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/nodeflow/internal/bootstrap"
	"github.com/aretw0/nodeflow/pkg/adapters/memory"
	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/aretw0/nodeflow/pkg/nodes"
	"github.com/aretw0/nodeflow/pkg/plugin"
	"github.com/aretw0/nodeflow/pkg/ports"
	"github.com/aretw0/nodeflow/pkg/registry"
	"github.com/aretw0/nodeflow/pkg/workflow"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a run holds the workflow lock.
const DefaultLockTTL = 30 * time.Minute

// Driver is the high-level entry point: bootstrap, plugin loading and runs.
type Driver struct {
	logger     *slog.Logger
	hooks      domain.RunHooks
	registry   *registry.Registry
	discoverer plugin.Discoverer
	artifacts  ports.ArtifactStore
	runs       ports.RunStore
	locker     ports.DistributedLocker
	lockTTL    time.Duration
	seeds      workflow.SeedSource
	bootOpts   bootstrap.Options

	// mu guards env and xc; runMu serializes runs so each takes its own queue item.
	mu    sync.Mutex
	runMu sync.Mutex
	env   *bootstrap.Environment
	xc    *plugin.ExecContext
}

// Option defines a functional option for configuring the Driver.
type Option func(*Driver)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithRunHooks registers observability hooks. Repeated calls are chained.
func WithRunHooks(hooks domain.RunHooks) Option {
	return func(d *Driver) {
		d.hooks = d.hooks.Merge(hooks)
	}
}

// WithRegistry injects the node type registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(d *Driver) {
		d.registry = reg
	}
}

// WithDiscoverer replaces manifest discovery.
func WithDiscoverer(disc plugin.Discoverer) Option {
	return func(d *Driver) {
		d.discoverer = disc
	}
}

// WithArtifactStore sets where SaveImage writes (default: in memory).
func WithArtifactStore(store ports.ArtifactStore) Option {
	return func(d *Driver) {
		d.artifacts = store
	}
}

// WithRunStore sets where run records are persisted (default: in memory).
func WithRunStore(store ports.RunStore) Option {
	return func(d *Driver) {
		d.runs = store
	}
}

// WithLocker serializes runs of the same workflow across processes.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(d *Driver) {
		d.locker = locker
		if ttl > 0 {
			d.lockTTL = ttl
		}
	}
}

// WithSeedSource replaces the random seed source.
func WithSeedSource(src workflow.SeedSource) Option {
	return func(d *Driver) {
		d.seeds = src
	}
}

// WithBootstrapOptions sets runtime name, config name and start directory.
func WithBootstrapOptions(opts bootstrap.Options) Option {
	return func(d *Driver) {
		d.bootOpts = opts
	}
}

// New initializes a Driver. Nothing touches the filesystem until Bootstrap.
func New(opts ...Option) (*Driver, error) {
	d := &Driver{lockTTL: DefaultLockTTL}
	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.registry == nil {
		d.registry = registry.NewRegistry()
	}
	if d.artifacts == nil {
		d.artifacts = memory.NewArtifacts()
	}
	if d.runs == nil {
		d.runs = memory.NewStore()
	}
	if d.discoverer == nil {
		d.discoverer = plugin.ManifestDiscovery{
			Builtins: nodes.Builtins(d.artifacts),
			Logger:   d.logger,
		}
	}
	if d.bootOpts.Logger == nil {
		d.bootOpts.Logger = d.logger
	}
	return d, nil
}

// Bootstrap locates the runtime root and applies the extra-paths file.
func (d *Driver) Bootstrap(ctx context.Context) (*bootstrap.Environment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bootstrapLocked(ctx)
}

func (d *Driver) bootstrapLocked(ctx context.Context) (*bootstrap.Environment, error) {
	env, err := bootstrap.Run(ctx, d.bootOpts)
	if err != nil {
		return nil, err
	}
	d.env = env
	return env, nil
}

// LoadPlugins registers built-in and plugin node types and seals the registry.
// It bootstraps first when Bootstrap has not run. A failed load leaves the
// registry unchanged and may be retried.
func (d *Driver) LoadPlugins(ctx context.Context) error {
	_, err := d.execContext(ctx)
	return err
}

func (d *Driver) execContext(ctx context.Context) (*plugin.ExecContext, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.xc != nil {
		return d.xc, nil
	}
	if d.env == nil {
		if _, err := d.bootstrapLocked(ctx); err != nil {
			return nil, err
		}
	}
	loader := plugin.NewLoader(d.registry,
		plugin.WithDiscoverer(d.discoverer),
		plugin.WithLogger(d.logger),
	)
	xc, err := loader.Load(ctx, d.env)
	if err != nil {
		return nil, err
	}
	d.xc = xc
	return xc, nil
}

// Run executes wf once through the request queue and persists its record.
// Plugins are loaded on first use. Concurrent calls are safe and run one at a time.
func (d *Driver) Run(ctx context.Context, wf *domain.Workflow) (*domain.RunRecord, error) {
	if wf == nil {
		return nil, fmt.Errorf("%w: workflow is nil", domain.ErrInvalidWorkflow)
	}
	xc, err := d.execContext(ctx)
	if err != nil {
		return nil, err
	}

	d.runMu.Lock()
	defer d.runMu.Unlock()

	queue := xc.Queue
	if err := queue.Put(plugin.Item{ID: uuid.NewString(), Workflow: wf.Name}); err != nil {
		return nil, fmt.Errorf("failed to enqueue %s: %w", wf.Name, err)
	}
	item, _ := queue.Next()
	defer xc.Loop.RunPending()

	if d.locker != nil {
		unlock, err := d.locker.Lock(ctx, "run:"+wf.Name, d.lockTTL)
		if err != nil {
			_ = queue.Done(item.ID, string(domain.RunFailed), err)
			return nil, fmt.Errorf("failed to lock workflow %s: %w", wf.Name, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				d.logger.Warn("failed to release workflow lock", "workflow", wf.Name, "err", err)
			}
		}()
	}

	runnerOpts := []workflow.Option{
		workflow.WithHooks(d.hooks),
		workflow.WithLogger(d.logger),
	}
	if d.seeds != nil {
		runnerOpts = append(runnerOpts, workflow.WithSeedSource(d.seeds))
	}
	rec, runErr := workflow.NewRunner(d.registry, runnerOpts...).Run(ctx, wf)

	if rec != nil {
		if err := d.runs.Save(context.WithoutCancel(ctx), rec); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to save run %s: %w", rec.ID, err))
		}
	}

	status := string(domain.RunCompleted)
	if runErr != nil {
		status = string(domain.RunFailed)
	}
	if err := queue.Done(item.ID, status, runErr); err != nil {
		d.logger.Warn("failed to report run outcome", "run", item.ID, "err", err)
	}
	return rec, runErr
}

// Registry returns the node type registry.
func (d *Driver) Registry() *registry.Registry {
	return d.registry
}

// Environment returns the bootstrap result, or nil before Bootstrap.
func (d *Driver) Environment() *bootstrap.Environment {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.env
}

// Runs returns the run store.
func (d *Driver) Runs() ports.RunStore {
	return d.runs
}

// Artifacts returns the artifact store.
func (d *Driver) Artifacts() ports.ArtifactStore {
	return d.artifacts
}

func (d *Driver) loaded() *plugin.ExecContext {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.xc
}

// History returns finished queue entries of this process.
func (d *Driver) History() []plugin.HistoryEntry {
	xc := d.loaded()
	if xc == nil {
		return nil
	}
	return xc.Queue.History()
}

// Subscribe registers fn for queue events ("queued", "executed").
// It has no effect before LoadPlugins.
func (d *Driver) Subscribe(fn plugin.Subscriber) {
	if xc := d.loaded(); xc != nil {
		xc.Server.Subscribe(fn)
	}
}

// Close shuts down the execution context.
func (d *Driver) Close() {
	if xc := d.loaded(); xc != nil {
		xc.Close()
	}
}
