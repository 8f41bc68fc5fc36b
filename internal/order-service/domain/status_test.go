package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTransition_Valid(t *testing.T) {
	valid := [][2]OrderStatus{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusPreparing},
		{StatusPreparing, StatusDelivered},
	}
	for _, tr := range valid {
		assert.NoError(t, ApplyTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestApplyTransition_Invalid(t *testing.T) {
	all := []OrderStatus{StatusPending, StatusConfirmed, StatusPreparing, StatusDelivered, StatusCancelled}
	allowed := map[[2]OrderStatus]bool{
		{StatusPending, StatusConfirmed}:   true,
		{StatusPending, StatusCancelled}:   true,
		{StatusConfirmed, StatusPreparing}: true,
		{StatusPreparing, StatusDelivered}: true,
	}
	for _, from := range all {
		for _, to := range all {
			if allowed[[2]OrderStatus{from, to}] {
				continue
			}
			err := ApplyTransition(from, to)
			var te *TransitionError
			require.True(t, errors.As(err, &te), "%s -> %s should be rejected", from, to)
			assert.Equal(t, from, te.From)
			assert.Equal(t, to, te.To)
			assert.NotEmpty(t, te.Reason)
		}
	}
}

func TestApplyTransition_Reasons(t *testing.T) {
	err := ApplyTransition(StatusPending, StatusPreparing)
	assert.EqualError(t, err, "order: transition pending -> preparing rejected: pending may only move to confirmed or cancelled")

	err = ApplyTransition(StatusDelivered, StatusPending)
	assert.EqualError(t, err, "order: transition delivered -> pending rejected: delivered is terminal")
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("preparing")
	require.NoError(t, err)
	assert.Equal(t, StatusPreparing, st)

	_, err = ParseStatus("completed")
	assert.True(t, errors.Is(err, ErrUnknownStatus))
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.Equal(t, []OrderStatus{StatusDelivered}, StatusPreparing.Next())
}
