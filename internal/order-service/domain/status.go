package domain

import (
	"errors"
	"fmt"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

var ErrUnknownStatus = errors.New("order: unknown status")

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing},
	StatusPreparing: {StatusDelivered},
	StatusDelivered: nil,
	StatusCancelled: nil,
}

// ParseStatus maps a wire value onto a known status.
func ParseStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// Next lists the statuses reachable from s in one step.
func (s OrderStatus) Next() []OrderStatus {
	return append([]OrderStatus(nil), transitions[s]...)
}

// TransitionError reports a rejected status change.
type TransitionError struct {
	From   OrderStatus
	To     OrderStatus
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order: transition %s -> %s rejected: %s", e.From, e.To, e.Reason)
}

// ApplyTransition validates moving an order from one status to another.
func ApplyTransition(from, to OrderStatus) error {
	next, known := transitions[from]
	if !known {
		return &TransitionError{From: from, To: to, Reason: fmt.Sprintf("current status %q is unknown", from)}
	}
	if _, ok := transitions[to]; !ok {
		return &TransitionError{From: from, To: to, Reason: fmt.Sprintf("target status %q is unknown", to)}
	}
	if from == to {
		return &TransitionError{From: from, To: to, Reason: "order is already " + string(to)}
	}
	if from.Terminal() {
		return &TransitionError{From: from, To: to, Reason: string(from) + " is terminal"}
	}
	for _, n := range next {
		if n == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to, Reason: fmt.Sprintf("%s may only move to %s", from, joinStatuses(next))}
}

func joinStatuses(ss []OrderStatus) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += " or "
		}
		out += string(s)
	}
	return out
}
