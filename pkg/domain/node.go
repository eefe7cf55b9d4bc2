package domain

import "context"

// Kwargs holds the keyword-only arguments of a node operation.
type Kwargs map[string]any

// Node is a live, stateful handle to a NodeType.
// Every operation takes keyword arguments and returns a Bundle.
type Node interface {
	Invoke(ctx context.Context, op string, kw Kwargs) (Bundle, error)
}

// NodeFunc adapts a function into a Node that ignores the operation name.
type NodeFunc func(ctx context.Context, op string, kw Kwargs) (Bundle, error)

// Invoke calls f.
func (f NodeFunc) Invoke(ctx context.Context, op string, kw Kwargs) (Bundle, error) {
	return f(ctx, op, kw)
}

// Factory constructs a fresh NodeInstance.
type Factory func() (Node, error)

// Sources of a NodeType.
const (
	SourceBuiltin = "builtin"
)

// NodeType is a named capability held by the registry.
type NodeType struct {
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Operations  []string `json:"operations,omitempty" yaml:"operations,omitempty"`

	// Source is SourceBuiltin or the plugin directory the type was loaded from.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	New Factory `json:"-" yaml:"-"`
}

// Supports reports whether op is declared. Types without declared operations accept any.
func (t NodeType) Supports(op string) bool {
	if len(t.Operations) == 0 {
		return true
	}
	for _, o := range t.Operations {
		if o == op {
			return true
		}
	}
	return false
}
