package ports

import (
	"context"

	"github.com/aretw0/nodeflow/pkg/domain"
)

// RunStore defines how run records are persisted.
type RunStore interface {
	// Save persists the record under its ID, replacing any previous version.
	Save(ctx context.Context, run *domain.RunRecord) error

	// Load retrieves a record.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunRecord, error)

	// Delete removes a record.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of all stored runs.
	List(ctx context.Context) ([]string, error)
}

// ArtifactStore is the durable storage behind the terminal persistence node.
// The store owns the naming convention: it receives a filename prefix and
// returns the key it actually wrote.
type ArtifactStore interface {
	// Put writes data under the next free name for prefix and returns the key.
	Put(ctx context.Context, prefix, ext string, data []byte) (string, error)

	// Get reads a previously written artifact.
	Get(ctx context.Context, key string) ([]byte, error)
}
