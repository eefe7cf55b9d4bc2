// Package registry holds the process-wide mapping from node type name to its factory.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/nodeflow/pkg/domain"
)

// Registry manages the available node types.
// It is populated during discovery and becomes read-only once sealed.
type Registry struct {
	mu     sync.RWMutex
	types  map[string]domain.NodeType
	sealed bool
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]domain.NodeType),
	}
}

// Register adds a node type to the registry.
func (r *Registry) Register(nt domain.NodeType) error {
	if nt.Name == "" {
		return fmt.Errorf("node type name is required")
	}
	if nt.New == nil {
		return fmt.Errorf("node type %s has no factory", nt.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: %s", domain.ErrRegistrySealed, nt.Name)
	}
	if _, exists := r.types[nt.Name]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateNodeType, nt.Name)
	}
	r.types[nt.Name] = nt
	return nil
}

// Lookup returns the node type registered under name.
func (r *Registry) Lookup(name string) (domain.NodeType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nt, ok := r.types[name]
	return nt, ok
}

// New constructs a fresh instance of the named node type.
func (r *Registry) New(name string) (domain.Node, error) {
	nt, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeTypeNotFound, name)
	}

	node, err := nt.New()
	if err != nil {
		return nil, fmt.Errorf("failed to construct %s: %w", name, err)
	}
	if len(nt.Operations) == 0 {
		return node, nil
	}
	return guarded{Node: node, nt: nt}, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Types returns the registered node types sorted by name.
func (r *Registry) Types() []domain.NodeType {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.NodeType, 0, len(names))
	for _, name := range names {
		out = append(out, r.types[name])
	}
	return out
}

// Clone returns an unsealed copy holding the same node types.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := NewRegistry()
	for name, nt := range r.types {
		c.types[name] = nt
	}
	return c
}

// Merge adds every type of src whose name is not yet registered.
// Nothing is added when r is sealed.
func (r *Registry) Merge(src *Registry) error {
	incoming := src.Types()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return domain.ErrRegistrySealed
	}
	for _, nt := range incoming {
		if _, exists := r.types[nt.Name]; !exists {
			r.types[nt.Name] = nt
		}
	}
	return nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// guarded rejects operations the node type does not declare.
type guarded struct {
	domain.Node
	nt domain.NodeType
}

func (g guarded) Invoke(ctx context.Context, op string, kw domain.Kwargs) (domain.Bundle, error) {
	if !g.nt.Supports(op) {
		return domain.Bundle{}, fmt.Errorf("%w: %s.%s", domain.ErrUnknownOperation, g.nt.Name, op)
	}
	return g.Node.Invoke(ctx, op, kw)
}
