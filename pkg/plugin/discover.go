package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/nodeflow/internal/bootstrap"
	"github.com/aretw0/nodeflow/pkg/adapters/process"
	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/aretw0/nodeflow/pkg/registry"
)

// Discoverer populates the registry. It must only be called once xc exists.
type Discoverer interface {
	Discover(ctx context.Context, xc *ExecContext, env *bootstrap.Environment, reg *registry.Registry) error
}

// DiscoverFunc adapts a function into a Discoverer.
type DiscoverFunc func(ctx context.Context, xc *ExecContext, env *bootstrap.Environment, reg *registry.Registry) error

// Discover calls f.
func (f DiscoverFunc) Discover(ctx context.Context, xc *ExecContext, env *bootstrap.Environment, reg *registry.Registry) error {
	return f(ctx, xc, env, reg)
}

// ImportResult is the outcome of loading one plugin directory.
type ImportResult struct {
	Dir      string
	Nodes    []string
	Duration time.Duration
	Err      error
}

// ManifestDiscovery registers the built-in node types and then every
// process-backed node type declared by plugin manifests.
type ManifestDiscovery struct {
	Builtins []domain.NodeType
	Logger   *slog.Logger
}

// Discover registers built-ins first; a failing built-in is fatal.
// A broken plugin is logged and skipped, and a name already taken is skipped with a warning.
func (d ManifestDiscovery) Discover(ctx context.Context, xc *ExecContext, env *bootstrap.Environment, reg *registry.Registry) error {
	if xc == nil {
		return domain.ErrNoExecutionContext
	}
	logger := d.logger()

	for _, nt := range d.Builtins {
		if nt.Source == "" {
			nt.Source = domain.SourceBuiltin
		}
		if err := reg.Register(nt); err != nil {
			return fmt.Errorf("failed to register built-in %s: %w", nt.Name, err)
		}
	}

	var results []ImportResult
	for _, root := range CustomNodeRoots(env) {
		dirs, err := pluginDirs(root)
		if err != nil {
			return err
		}
		for _, dir := range dirs {
			if err := ctx.Err(); err != nil {
				return err
			}
			results = append(results, d.importDir(dir, reg, logger))
		}
	}

	logSummary(logger, results)
	return nil
}

func (d ManifestDiscovery) importDir(dir string, reg *registry.Registry, logger *slog.Logger) ImportResult {
	start := time.Now()
	res := ImportResult{Dir: dir}

	manifest, ok := process.FindManifest(dir)
	if !ok {
		res.Err = errors.New("no node manifest found")
		logger.Warn("Skipping custom nodes directory", "dir", dir, "err", res.Err)
		res.Duration = time.Since(start)
		return res
	}

	configs, err := process.LoadManifest(manifest)
	if err != nil {
		res.Err = err
		logger.Warn("Cannot import module for custom nodes", "dir", dir, "err", err)
		res.Duration = time.Since(start)
		return res
	}

	for _, cfg := range configs {
		err := reg.Register(process.NodeType(cfg, dir))
		switch {
		case errors.Is(err, domain.ErrDuplicateNodeType):
			logger.Warn("Node type already registered, skipping", "node", cfg.Name, "dir", dir)
		case err != nil:
			res.Err = err
			logger.Warn("Cannot register custom node", "node", cfg.Name, "dir", dir, "err", err)
		default:
			res.Nodes = append(res.Nodes, cfg.Name)
		}
	}
	res.Duration = time.Since(start)
	return res
}

func (d ManifestDiscovery) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d.Logger
}

// CustomNodeRoots lists the directories scanned for plugins: <root>/custom_nodes
// for every search path entry, then the custom_nodes folder paths. Duplicates are dropped.
func CustomNodeRoots(env *bootstrap.Environment) []string {
	if env == nil {
		return nil
	}
	seen := make(map[string]bool)
	var roots []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			roots = append(roots, p)
		}
	}

	for _, p := range env.SearchPath {
		add(filepath.Join(p, bootstrap.CustomNodesCategory))
	}
	for _, p := range env.FolderPaths[bootstrap.CustomNodesCategory] {
		add(p)
	}
	return roots
}

// pluginDirs returns the enabled plugin directories under root, sorted by name.
// A missing root holds no plugins.
func pluginDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read custom nodes folder %s: %w", root, err)
	}

	var dirs []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".disabled") || name == "__pycache__" {
			continue
		}
		dirs = append(dirs, filepath.Join(root, name))
	}
	sort.Strings(dirs)
	return dirs, nil
}

func logSummary(logger *slog.Logger, results []ImportResult) {
	if len(results) == 0 {
		return
	}
	sorted := append([]ImportResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Duration < sorted[j].Duration })

	logger.Info("Import times for custom nodes")
	for _, r := range sorted {
		attrs := []any{"seconds", fmt.Sprintf("%.1f", r.Duration.Seconds()), "dir", r.Dir, "nodes", len(r.Nodes)}
		if r.Err != nil {
			attrs = append(attrs, "status", "IMPORT FAILED")
		}
		logger.Info("custom node import", attrs...)
	}
}
