package dsl

import (
	"maps"

	"github.com/aretw0/nodeflow/pkg/domain"
)

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step domain.Step
}

// Call sets the instance and operation the step invokes.
func (s *StepBuilder) Call(instance, op string) *StepBuilder {
	s.step.Instance = instance
	s.step.Operation = op
	return s
}

// With passes a literal keyword argument.
func (s *StepBuilder) With(name string, value any) *StepBuilder {
	return s.input(name, domain.Literal(value))
}

// From wires a keyword argument to position index of an earlier step's output.
func (s *StepBuilder) From(name, step string, index int) *StepBuilder {
	return s.input(name, domain.From(step, index))
}

// Seed draws a fresh random seed for the argument on every invocation.
func (s *StepBuilder) Seed(name string) *StepBuilder {
	return s.input(name, domain.RandomSeed())
}

func (s *StepBuilder) input(name string, in domain.Input) *StepBuilder {
	if s.step.Inputs == nil {
		s.step.Inputs = make(map[string]domain.Input)
	}
	s.step.Inputs[name] = in
	return s
}

func (s *StepBuilder) build() domain.Step {
	step := s.step
	step.Inputs = maps.Clone(s.step.Inputs)
	return step
}
