package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart   EventType = "run_start"
	EventRunFinish  EventType = "run_finish"
	EventStepStart  EventType = "step_start"
	EventStepFinish EventType = "step_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// RunEvent marks the start or end of a run.
type RunEvent struct {
	EventBase
	Workflow string        `json:"workflow"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// StepEvent marks the start or end of a node invocation.
type StepEvent struct {
	EventBase
	StepID    string        `json:"step_id"`
	NodeType  string        `json:"node_type"`
	Operation string        `json:"op"`
	Iteration int           `json:"iteration"`
	Kwargs    Kwargs        `json:"-"`
	Output    *Bundle       `json:"-"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// RunHooks defines callbacks for run observability. Nil callbacks are skipped.
type RunHooks struct {
	OnRunStart   func(context.Context, *RunEvent)
	OnRunFinish  func(context.Context, *RunEvent)
	OnStepStart  func(context.Context, *StepEvent)
	OnStepFinish func(context.Context, *StepEvent)
}

// Merge chains h and other; h's callbacks fire first.
func (h RunHooks) Merge(other RunHooks) RunHooks {
	return RunHooks{
		OnRunStart:   chainRun(h.OnRunStart, other.OnRunStart),
		OnRunFinish:  chainRun(h.OnRunFinish, other.OnRunFinish),
		OnStepStart:  chainStep(h.OnStepStart, other.OnStepStart),
		OnStepFinish: chainStep(h.OnStepFinish, other.OnStepFinish),
	}
}

func chainRun(a, b func(context.Context, *RunEvent)) func(context.Context, *RunEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *RunEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainStep(a, b func(context.Context, *StepEvent)) func(context.Context, *StepEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *StepEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
