package domain

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Workflow is a static, acyclic chain of node invocations.
// Setup steps run once; Body steps run Iterations times (at least once).
type Workflow struct {
	Name       string     `json:"name" yaml:"name"`
	Instances  []Instance `json:"instances" yaml:"instances"`
	Setup      []Step     `json:"setup,omitempty" yaml:"setup,omitempty"`
	Body       []Step     `json:"body,omitempty" yaml:"body,omitempty"`
	Iterations int        `json:"iterations,omitempty" yaml:"iterations,omitempty"`
}

// Instance declares a NodeInstance created from a registered NodeType.
type Instance struct {
	ID   string `json:"id" yaml:"id"`
	Type string `json:"type" yaml:"type"`
}

// Step invokes one operation on an instance.
type Step struct {
	ID        string           `json:"id" yaml:"id"`
	Instance  string           `json:"instance" yaml:"instance"`
	Operation string           `json:"op" yaml:"op"`
	Inputs    map[string]Input `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// Ref addresses a position in the output of an earlier step.
type Ref struct {
	Step  string `json:"step" yaml:"step" mapstructure:"step"`
	Index int    `json:"index" yaml:"index" mapstructure:"index"`
}

// Input is the source of one keyword argument: a literal Value, a From
// reference, or a fresh random Seed. Exactly one must be set.
type Input struct {
	Value any  `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	From  *Ref `json:"from,omitempty" yaml:"from,omitempty" mapstructure:"from"`
	Seed  bool `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`

	hasValue bool
}

// Literal returns an Input carrying v.
func Literal(v any) Input {
	return Input{Value: v, hasValue: true}
}

// From returns an Input wired to position index of step's output.
func From(step string, index int) Input {
	return Input{From: &Ref{Step: step, Index: index}}
}

// RandomSeed returns an Input that draws a fresh seed for every invocation.
func RandomSeed() Input {
	return Input{Seed: true}
}

// IsLiteral reports whether the input is a literal value (nil included).
func (in Input) IsLiteral() bool {
	return in.hasValue || (in.From == nil && !in.Seed && in.Value != nil)
}

// Sources counts how many sources are set.
func (in Input) Sources() int {
	n := 0
	if in.IsLiteral() {
		n++
	}
	if in.From != nil {
		n++
	}
	if in.Seed {
		n++
	}
	return n
}

var inputKeys = map[string]bool{"value": true, "from": true, "seed": true}

// decodeInput interprets a raw document value. Mappings made only of the
// keys value/from/seed are input specs; anything else is a literal.
func decodeInput(raw any) (Input, error) {
	m, ok := raw.(map[string]any)
	if !ok || len(m) == 0 {
		return Literal(raw), nil
	}
	for k := range m {
		if !inputKeys[k] {
			return Literal(raw), nil
		}
	}

	var in Input
	if err := mapstructure.Decode(m, &in); err != nil {
		return Input{}, fmt.Errorf("decode input: %w", err)
	}
	if _, ok := m["value"]; ok {
		in.hasValue = true
	}
	return in, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (in *Input) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	decoded, err := decodeInput(raw)
	if err != nil {
		return err
	}
	*in = decoded
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (in *Input) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := decodeInput(raw)
	if err != nil {
		return err
	}
	*in = decoded
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (in Input) MarshalYAML() (any, error) {
	return in.document(), nil
}

// MarshalJSON implements json.Marshaler.
func (in Input) MarshalJSON() ([]byte, error) {
	return json.Marshal(in.document())
}

func (in Input) document() any {
	switch {
	case in.From != nil:
		return map[string]any{"from": map[string]any{"step": in.From.Step, "index": in.From.Index}}
	case in.Seed:
		return map[string]any{"seed": true}
	}
	if m, ok := in.Value.(map[string]any); ok && len(m) > 0 {
		return map[string]any{"value": m}
	}
	return in.Value
}

// Instance returns the declared instance with the given ID.
func (w *Workflow) Instance(id string) (Instance, bool) {
	for _, inst := range w.Instances {
		if inst.ID == id {
			return inst, true
		}
	}
	return Instance{}, false
}

// RunCount is the effective number of body iterations.
func (w *Workflow) RunCount() int {
	if w.Iterations <= 0 {
		return 1
	}
	return w.Iterations
}
