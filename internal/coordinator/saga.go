// Package coordinator runs a short sequence of steps and undoes the ones that
// already succeeded when a later step fails.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
)

// Step represents a single unit of work.
// Each step must have a compensating action to undo its effects.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Orchestrator manages the execution of a collection of Steps.
type Orchestrator struct {
	name  string
	steps []Step
}

func NewOrchestrator(name string, steps ...Step) *Orchestrator {
	return &Orchestrator{name: name, steps: steps}
}

// Start runs the steps sequentially.
// If a step fails, it compensates all previously successful steps in reverse
// order and returns the failing step's error wrapped with its name.
// Compensation runs on a context that ignores cancellation of ctx, so a
// timed-out step still gets rolled back.
func (o *Orchestrator) Start(ctx context.Context) error {
	var successfulSteps []Step

	for _, step := range o.steps {
		slog.DebugContext(ctx, "executing step", "saga", o.name, "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			slog.WarnContext(ctx, "step failed, starting rollback", "saga", o.name, "step", step.Name(), "error", err)
			o.rollback(context.WithoutCancel(ctx), successfulSteps)
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
		// Track successful step for potential compensation (LIFO)
		successfulSteps = append(successfulSteps, step)
	}

	slog.DebugContext(ctx, "saga completed", "saga", o.name)
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step) {
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		slog.DebugContext(ctx, "compensating step", "saga", o.name, "step", step.Name())
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to compensate step", "saga", o.name, "step", step.Name(), "error", err)
		}
	}
}
