// Package bootstrap prepares the process environment before plugins are discovered.
//
// It locates the host runtime root and the optional extra-paths file by walking
// up from the start directory, then applies that file through a loader resolved
// at call time. The result is an explicit Environment handle rather than global state.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/aretw0/nodeflow/pkg/pathfind"
	"github.com/aretw0/nodeflow/pkg/ports"
)

const (
	DefaultRuntimeName     = "ComfyUI"
	DefaultExtraConfigName = "extra_model_paths.yaml"
)

// Loader symbol locations, tried in order.
const (
	PrimaryLoaderModule  = "main"
	FallbackLoaderModule = "utils.extra_config"
	LoaderSymbol         = "load_extra_path_config"
)

// Options configures Run.
type Options struct {
	RuntimeName     string
	ExtraConfigName string
	// StartDir is where the ancestor search begins. Empty means the working directory.
	StartDir string
	// SearchPath seeds Environment.SearchPath; it is copied, never mutated.
	SearchPath []string
	Importer   ports.SymbolImporter
	Logger     *slog.Logger
}

// Environment is the outcome of bootstrapping, handed to discovery and runs.
type Environment struct {
	RuntimeRoot     string
	SearchPath      []string
	ExtraConfigPath string
	// FolderPaths maps a folder category (checkpoints, custom_nodes, ...) to its directories.
	FolderPaths map[string][]string
}

// ExtraPathLoader applies an extra-paths file to env.
type ExtraPathLoader func(path string, env *Environment) error

// Run locates the runtime root and applies the extra-paths file when present.
// Neither being absent is an error.
func Run(ctx context.Context, opts Options) (*Environment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = withDefaults(opts)
	finder := pathfind.Finder{Logger: opts.Logger}

	env := &Environment{
		SearchPath:  append([]string(nil), opts.SearchPath...),
		FolderPaths: make(map[string][]string),
	}

	root, err := finder.Find(opts.RuntimeName, opts.StartDir)
	if err != nil {
		return nil, fmt.Errorf("failed to locate %s: %w", opts.RuntimeName, err)
	}
	if root.Found && isDir(root.Path) {
		env.RuntimeRoot = root.Path
		env.SearchPath = append(env.SearchPath, root.Path)
		opts.Logger.Info("runtime root added to search path", "path", root.Path)
	}

	cfg, err := finder.Find(opts.ExtraConfigName, opts.StartDir)
	if err != nil {
		return nil, fmt.Errorf("failed to locate %s: %w", opts.ExtraConfigName, err)
	}
	if !cfg.Found {
		opts.Logger.Info("Could not find the extra model paths config file", "name", opts.ExtraConfigName)
		return env, nil
	}

	load, err := ResolveLoader(opts.Importer, opts.Logger)
	if err != nil {
		return nil, err
	}
	if err := load(cfg.Path, env); err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", cfg.Path, err)
	}
	env.ExtraConfigPath = cfg.Path
	return env, nil
}

// ResolveLoader imports the extra-paths loader from the primary module, falling back
// to the utility module with a notice. Failure of both is returned.
func ResolveLoader(importer ports.SymbolImporter, logger *slog.Logger) (ExtraPathLoader, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sym, err := importer.Import(PrimaryLoaderModule, LoaderSymbol)
	if err != nil {
		logger.Info("Could not import "+LoaderSymbol+" from "+PrimaryLoaderModule+". Looking in "+FallbackLoaderModule+" instead.",
			"err", err)
		sym, err = importer.Import(FallbackLoaderModule, LoaderSymbol)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", LoaderSymbol, err)
		}
	}

	switch fn := sym.(type) {
	case ExtraPathLoader:
		return fn, nil
	case func(string, *Environment) error:
		return fn, nil
	default:
		return nil, fmt.Errorf("%s is %T, not an extra path loader", LoaderSymbol, sym)
	}
}

// SymbolTable is an in-process importer: module -> symbol name -> value.
type SymbolTable map[string]map[string]any

// Import implements ports.SymbolImporter.
func (t SymbolTable) Import(module, name string) (any, error) {
	syms, ok := t[module]
	if !ok {
		return nil, fmt.Errorf("%w: no module named %s", domain.ErrSymbolNotFound, module)
	}
	sym, ok := syms[name]
	if !ok {
		return nil, fmt.Errorf("%w: cannot import %s from %s", domain.ErrSymbolNotFound, name, module)
	}
	return sym, nil
}

// DefaultSymbols exports the built-in loader from the utility module only,
// so resolution always goes through the fallback.
func DefaultSymbols() SymbolTable {
	return SymbolTable{
		FallbackLoaderModule: {LoaderSymbol: ExtraPathLoader(LoadExtraPathConfig)},
	}
}

func withDefaults(opts Options) Options {
	if opts.RuntimeName == "" {
		opts.RuntimeName = DefaultRuntimeName
	}
	if opts.ExtraConfigName == "" {
		opts.ExtraConfigName = DefaultExtraConfigName
	}
	if opts.Importer == nil {
		opts.Importer = DefaultSymbols()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opts
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

