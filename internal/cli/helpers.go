package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/nodeflow/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// Unlike signal.NotifyContext it remembers which signal arrived.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.RunHooks {
	return domain.RunHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) {
			logger.Debug("Run Start", "run_id", e.RunID, "workflow", e.Workflow)
		},
		OnStepStart: func(_ context.Context, e *domain.StepEvent) {
			logger.Debug("Step Start", "step", e.StepID, "node_type", e.NodeType, "op", e.Operation, "iteration", e.Iteration)
		},
		OnStepFinish: func(_ context.Context, e *domain.StepEvent) {
			if e.Err != nil {
				logger.Debug("Step Failed", "step", e.StepID, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.Debug("Step Finished", "step", e.StepID, "duration", e.Duration)
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			logger.Debug("Run Finish", "run_id", e.RunID, "duration", e.Duration, "err", e.Err)
		},
	}
}

func isInterrupted(err error) bool {
	return err != nil && errors.Is(err, context.Canceled)
}

// handleExecutionError swallows interruptions so Ctrl+C exits cleanly.
func handleExecutionError(err error) error {
	if isInterrupted(err) {
		return nil
	}
	return err
}
