package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct{ calls []string }

func (r *recorder) step(name string, fail bool) FuncStep {
	return FuncStep{
		StepName: name,
		Do: func(context.Context) error {
			r.calls = append(r.calls, "do:"+name)
			if fail {
				return errors.New(name + " broke")
			}
			return nil
		},
		Undo: func(context.Context) error {
			r.calls = append(r.calls, "undo:"+name)
			return nil
		},
	}
}

func TestOrchestrator_AllStepsSucceed(t *testing.T) {
	r := &recorder{}
	o := NewOrchestrator("test", r.step("a", false), r.step("b", false))

	require.NoError(t, o.Start(context.Background()))
	assert.Equal(t, []string{"do:a", "do:b"}, r.calls)
}

func TestOrchestrator_CompensatesInReverse(t *testing.T) {
	r := &recorder{}
	o := NewOrchestrator("test", r.step("a", false), r.step("b", false), r.step("c", true), r.step("d", false))

	err := o.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c: c broke")
	assert.Equal(t, []string{"do:a", "do:b", "do:c", "undo:b", "undo:a"}, r.calls)
}

func TestOrchestrator_WrapsStepError(t *testing.T) {
	sentinel := errors.New("sentinel")
	o := NewOrchestrator("test", FuncStep{StepName: "x", Do: func(context.Context) error { return sentinel }})

	assert.ErrorIs(t, o.Start(context.Background()), sentinel)
}

func TestOrchestrator_CompensatesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var undoErr error

	o := NewOrchestrator("test",
		FuncStep{
			StepName: "first",
			Do:       func(context.Context) error { return nil },
			Undo: func(ctx context.Context) error {
				undoErr = ctx.Err()
				return nil
			},
		},
		FuncStep{
			StepName: "second",
			Do: func(ctx context.Context) error {
				cancel()
				return ctx.Err()
			},
		},
	)

	require.ErrorIs(t, o.Start(ctx), context.Canceled)
	assert.NoError(t, undoErr)
}
