package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/nodeflow/pkg/domain"
)

// Artifacts implements ports.ArtifactStore in memory.
type Artifacts struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewArtifacts creates an empty artifact store.
func NewArtifacts() *Artifacts {
	return &Artifacts{blobs: make(map[string][]byte)}
}

// Put stores a copy of data under the next free key for prefix.
func (a *Artifacts) Put(ctx context.Context, prefix, ext string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make([]string, 0, len(a.blobs))
	for k := range a.blobs {
		keys = append(keys, k)
	}
	key := domain.ArtifactKey(prefix, domain.NextArtifactCounter(prefix, keys), ext)
	a.blobs[key] = append([]byte(nil), data...)
	return key, nil
}

// Get returns a copy of the artifact stored under key.
func (a *Artifacts) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, ok := a.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, key)
	}
	return append([]byte(nil), data...), nil
}

// Len returns the number of stored artifacts.
func (a *Artifacts) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.blobs)
}
