package app

import (
	"fmt"
	"strings"
)

// FieldError names one rejected input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when required fields are missing or
// malformed. Nothing is written.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return "order: invalid request: " + joinFields(e.Fields)
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// ConstraintError is returned when a well-formed order disagrees with the
// catalog or the delivery table: bad option selections, or prices and totals
// that do not match what the server computes. Nothing is written.
type ConstraintError struct {
	Fields []FieldError
}

func (e *ConstraintError) Error() string {
	return "order: rejected: " + joinFields(e.Fields)
}

func (e *ConstraintError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func joinFields(fields []FieldError) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return strings.Join(parts, "; ")
}
