package plugin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/nodeflow/internal/bootstrap"
	"github.com/aretw0/nodeflow/pkg/registry"
)

// Loader stands up the execution context, runs discovery, and seals the registry.
type Loader struct {
	Registry   *registry.Registry
	Discoverer Discoverer
	Logger     *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithDiscoverer replaces the default manifest discovery.
func WithDiscoverer(d Discoverer) LoaderOption {
	return func(l *Loader) {
		l.Discoverer = d
	}
}

// WithLogger sets the loader logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.Logger = logger
	}
}

// NewLoader creates a loader for reg. Without WithDiscoverer it uses a
// ManifestDiscovery with no built-ins.
func NewLoader(reg *registry.Registry, opts ...LoaderOption) *Loader {
	l := &Loader{
		Registry: reg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.Discoverer == nil {
		l.Discoverer = ManifestDiscovery{Logger: l.Logger}
	}
	return l
}

// Load builds the ExecContext, then discovers node types with its loop installed in ctx.
// Discovery writes to a copy of the registry that is merged back only on success,
// so a failed Load leaves the registry as it was. Nothing is retried.
func (l *Loader) Load(ctx context.Context, env *bootstrap.Environment) (*ExecContext, error) {
	xc := Setup()
	ctx = WithLoop(ctx, xc.Loop)

	start := time.Now()
	scratch := l.Registry.Clone()
	if err := l.Discoverer.Discover(ctx, xc, env, scratch); err != nil {
		xc.Close()
		return nil, fmt.Errorf("node discovery failed: %w", err)
	}
	xc.Loop.RunPending()
	if err := l.Registry.Merge(scratch); err != nil {
		xc.Close()
		return nil, fmt.Errorf("failed to publish node types: %w", err)
	}
	l.Registry.Seal()

	l.Logger.Info("node types loaded", "count", len(l.Registry.Names()), "duration", time.Since(start))
	return xc, nil
}
