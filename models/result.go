package models

import (
	apperrors "github.com/osamikoyo/loanflow/errors"
)

// Result is either a value or a classified failure, never both.
type Result[T any] struct {
	value T
	err   *apperrors.ApplicationError
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

func Fail[T any](err *apperrors.ApplicationError) Result[T] {
	if err == nil {
		err = apperrors.Upstream("unclassified failure", nil)
	}
	return Result[T]{err: err}
}

func (r Result[T]) Failed() bool {
	return r.err != nil
}

// Err returns the failure, nil on success.
func (r Result[T]) Err() *apperrors.ApplicationError {
	return r.err
}

// Value returns the success value and panics on a failed result.
func (r Result[T]) Value() T {
	if r.err != nil {
		panic("models: Value called on failed result: " + r.err.Error())
	}
	return r.value
}

// Unwrap returns the value and the failure as a plain error.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}
