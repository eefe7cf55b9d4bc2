package nodes

import (
	"fmt"

	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/aretw0/nodeflow/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// Built-in node type names.
const (
	SaveImageType       = "SaveImage"
	PrimitiveStringType = "PrimitiveString"
	PrimitiveIntType    = "PrimitiveInt"
)

// Builtins returns the built-in node types. SaveImage writes through store.
func Builtins(store ports.ArtifactStore) []domain.NodeType {
	return []domain.NodeType{
		{
			Name:        SaveImageType,
			Category:    "image",
			Description: "Saves the input images to the output store.",
			Operations:  []string{OpSaveImages},
			Source:      domain.SourceBuiltin,
			New: func() (domain.Node, error) {
				if store == nil {
					return nil, fmt.Errorf("%s requires an artifact store", SaveImageType)
				}
				return &SaveImage{Store: store}, nil
			},
		},
		{
			Name:        PrimitiveStringType,
			Category:    "utils/primitive",
			Description: "Passes a string value through unchanged.",
			Operations:  []string{OpGet},
			Source:      domain.SourceBuiltin,
			New:         func() (domain.Node, error) { return PrimitiveString{}, nil },
		},
		{
			Name:        PrimitiveIntType,
			Category:    "utils/primitive",
			Description: "Passes an integer value through unchanged.",
			Operations:  []string{OpGet},
			Source:      domain.SourceBuiltin,
			New:         func() (domain.Node, error) { return PrimitiveInt{}, nil },
		},
	}
}

// decode maps kwargs onto a tagged struct.
func decode(kw domain.Kwargs, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(kw))
}
