package nodes

import (
	"context"
	"fmt"

	"github.com/aretw0/nodeflow/pkg/domain"
)

// OpGet returns the value kwarg as a one-element sequence.
const OpGet = "get"

type primitiveArgs[T any] struct {
	Value T `mapstructure:"value"`
}

// PrimitiveString feeds a literal string through a node.
type PrimitiveString struct{}

func (PrimitiveString) Invoke(ctx context.Context, op string, kw domain.Kwargs) (domain.Bundle, error) {
	return primitive[string](op, kw)
}

// PrimitiveInt feeds a literal integer through a node. Numeric strings are accepted.
type PrimitiveInt struct{}

func (PrimitiveInt) Invoke(ctx context.Context, op string, kw domain.Kwargs) (domain.Bundle, error) {
	return primitive[int64](op, kw)
}

func primitive[T any](op string, kw domain.Kwargs) (domain.Bundle, error) {
	if op != OpGet {
		return domain.Bundle{}, fmt.Errorf("%w: %s", domain.ErrUnknownOperation, op)
	}
	var args primitiveArgs[T]
	if err := decode(kw, &args); err != nil {
		return domain.Bundle{}, fmt.Errorf("invalid arguments: %w", err)
	}
	return domain.Seq(args.Value), nil
}
