// Package pathfind locates a named entry by walking from a directory up to the filesystem root.
//
// Only the direct children of each ancestor are inspected; sibling subtrees are never descended into.
package pathfind

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Result describes the outcome of a search.
type Result struct {
	// Path is the absolute path of the match, empty when not found.
	Path string
	// Found reports whether a match was found.
	Found bool
	// Ascents is the number of times the search moved to a parent directory.
	Ascents int
}

// Finder searches ancestor directories for an entry by exact name.
type Finder struct {
	Logger *slog.Logger
}

// Find searches start and then each of its ancestors for an entry called name.
// An empty start means the current working directory.
// Absence is reported through Result.Found, not as an error.
func (f Finder) Find(name, start string) (Result, error) {
	dir, err := startDir(start)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for {
		ok, err := hasChild(dir, name)
		if err != nil {
			return res, err
		}
		if ok {
			res.Path = filepath.Join(dir, name)
			res.Found = true
			f.logger().Info(name+" found", "path", res.Path)
			return res, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return res, nil
		}
		dir = parent
		res.Ascents++
	}
}

// Find is a shorthand for a silent Finder.
func Find(name, start string) (string, bool, error) {
	res, err := Finder{}.Find(name, start)
	return res.Path, res.Found, err
}

func (f Finder) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return f.Logger
}

func startDir(start string) (string, error) {
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}
	return abs, nil
}

func hasChild(dir, name string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.Name() == name {
			return true, nil
		}
	}
	return false, nil
}
