package workflow

import (
	"errors"
	"fmt"

	"github.com/aretw0/nodeflow/pkg/domain"
)

// Validate checks the structure of wf without touching the registry.
// Every violation is reported, joined, and wrapped in domain.ErrInvalidWorkflow.
func Validate(wf *domain.Workflow) error {
	if wf == nil {
		return fmt.Errorf("%w: workflow is nil", domain.ErrInvalidWorkflow)
	}

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if wf.Iterations < 0 {
		fail("iterations must not be negative, got %d", wf.Iterations)
	}

	instances := make(map[string]bool, len(wf.Instances))
	for _, inst := range wf.Instances {
		switch {
		case inst.ID == "":
			fail("instance of type %q has no id", inst.Type)
		case instances[inst.ID]:
			fail("duplicate instance %q", inst.ID)
		case inst.Type == "":
			fail("instance %q has no type", inst.ID)
		}
		instances[inst.ID] = true
	}

	// Steps become visible to later steps as they are checked, setup first.
	seen := make(map[string]bool)
	check := func(section string, steps []domain.Step) {
		for i, step := range steps {
			where := fmt.Sprintf("%s step #%d", section, i)
			if step.ID != "" {
				where = fmt.Sprintf("%s step %q", section, step.ID)
			}

			switch {
			case step.ID == "":
				fail("%s has no id", where)
			case seen[step.ID]:
				fail("duplicate step %q", step.ID)
			}
			if !instances[step.Instance] {
				fail("%s uses unknown instance %q", where, step.Instance)
			}
			if step.Operation == "" {
				fail("%s has no operation", where)
			}

			for name, in := range step.Inputs {
				if n := in.Sources(); n != 1 {
					fail("%s input %q must have exactly one source, has %d", where, name, n)
					continue
				}
				if in.From == nil {
					continue
				}
				if !seen[in.From.Step] {
					fail("%s input %q refers to %q, which does not run earlier", where, name, in.From.Step)
				}
				if in.From.Index < 0 {
					fail("%s input %q has negative index %d", where, name, in.From.Index)
				}
			}
			seen[step.ID] = true
		}
	}
	check("setup", wf.Setup)
	check("body", wf.Body)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidWorkflow, errors.Join(errs...))
}
