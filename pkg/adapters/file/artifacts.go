package file

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/nodeflow/pkg/domain"
)

// Artifacts implements ports.ArtifactStore on a local output directory.
// Keys are slash-separated paths relative to Root.
type Artifacts struct {
	Root string

	mu sync.Mutex
}

// NewArtifacts creates a store rooted at dir. An empty dir means "output".
func NewArtifacts(dir string) *Artifacts {
	if dir == "" {
		dir = "output"
	}
	return &Artifacts{Root: dir}
}

// Put writes data under the next free counter for prefix.
// Prefixes that escape Root are rejected.
func (a *Artifacts) Put(ctx context.Context, prefix, ext string, data []byte) (string, error) {
	clean, err := relKey(prefix)
	if err != nil {
		return "", fmt.Errorf("saving outside the output folder is not allowed: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	dir := path.Dir(clean)
	entries, err := os.ReadDir(filepath.Join(a.Root, filepath.FromSlash(dir)))
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to list output folder: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			keys = append(keys, path.Join(dir, e.Name()))
		}
	}

	key := domain.ArtifactKey(clean, domain.NextArtifactCounter(clean, keys), ext)
	if err := writeAtomic(filepath.Join(a.Root, filepath.FromSlash(key)), data); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", key, err)
	}
	return key, nil
}

// Get reads the artifact stored under key.
// Keys that escape Root are rejected.
func (a *Artifacts) Get(ctx context.Context, key string) ([]byte, error) {
	clean, err := relKey(key)
	if err != nil {
		return nil, fmt.Errorf("reading outside the output folder is not allowed: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(a.Root, filepath.FromSlash(clean)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, key)
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

// relKey cleans a slash-separated key and rejects anything that would leave Root.
func relKey(key string) (string, error) {
	clean := path.Clean(filepath.ToSlash(key))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) || filepath.IsAbs(key) {
		return "", fmt.Errorf("%q", key)
	}
	return clean, nil
}
