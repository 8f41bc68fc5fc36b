package coordinator

import "context"

// FuncStep builds a Step from closures. A nil Undo means the step has
// nothing to compensate.
type FuncStep struct {
	StepName string
	Do       func(ctx context.Context) error
	Undo     func(ctx context.Context) error
}

var _ Step = FuncStep{}

func (s FuncStep) Name() string { return s.StepName }

func (s FuncStep) Execute(ctx context.Context) error { return s.Do(ctx) }

func (s FuncStep) Compensate(ctx context.Context) error {
	if s.Undo == nil {
		return nil
	}
	return s.Undo(ctx)
}
