package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
)

// NotFoundError reports a missing entity, or one the caller doesn't own.
type NotFoundError struct {
	Entity string
	Field  string
	Value  any
}

func NewNotFound(entity, field string, value any) *NotFoundError {
	return &NotFoundError{Entity: entity, Field: field, Value: value}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s: %v", e.Entity, e.Field, e.Value)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidStateError reports a request that can't proceed given current state.
type InvalidStateError struct {
	Reason string
}

func NewInvalidState(reason string) *InvalidStateError {
	return &InvalidStateError{Reason: reason}
}

func (e *InvalidStateError) Error() string {
	return "invalid state: " + e.Reason
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }
