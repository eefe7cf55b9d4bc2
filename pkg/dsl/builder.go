package dsl

import (
	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/aretw0/nodeflow/pkg/workflow"
)

// Builder manages the workflow construction.
type Builder struct {
	wf    domain.Workflow
	steps map[string]*StepBuilder
	setup []*StepBuilder
	body  []*StepBuilder
}

// New creates a new workflow builder.
func New(name string) *Builder {
	return &Builder{
		wf:    domain.Workflow{Name: name},
		steps: make(map[string]*StepBuilder),
	}
}

// Instance declares a node instance of the given type.
func (b *Builder) Instance(id, nodeType string) *Builder {
	b.wf.Instances = append(b.wf.Instances, domain.Instance{ID: id, Type: nodeType})
	return b
}

// Iterations sets how many times the body runs.
func (b *Builder) Iterations(n int) *Builder {
	b.wf.Iterations = n
	return b
}

// Setup adds a step that runs once before the body.
// If the step already exists, it returns the existing builder.
func (b *Builder) Setup(id string) *StepBuilder {
	return b.add(id, &b.setup)
}

// Step adds a body step.
// If the step already exists, it returns the existing builder.
func (b *Builder) Step(id string) *StepBuilder {
	return b.add(id, &b.body)
}

func (b *Builder) add(id string, section *[]*StepBuilder) *StepBuilder {
	if sb, ok := b.steps[id]; ok {
		return sb
	}
	sb := &StepBuilder{step: domain.Step{ID: id}}
	b.steps[id] = sb
	*section = append(*section, sb)
	return sb
}

// Build assembles and validates the workflow.
func (b *Builder) Build() (*domain.Workflow, error) {
	wf := b.wf
	wf.Instances = append([]domain.Instance(nil), b.wf.Instances...)
	wf.Setup = collect(b.setup)
	wf.Body = collect(b.body)

	if err := workflow.Validate(&wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

func collect(sbs []*StepBuilder) []domain.Step {
	if len(sbs) == 0 {
		return nil
	}
	steps := make([]domain.Step, 0, len(sbs))
	for _, sb := range sbs {
		steps = append(steps, sb.build())
	}
	return steps
}
