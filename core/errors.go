package core

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// The business-rule error taxonomy. Repositories and services return these
// (or sentinels built on them); the API layer maps them to status codes.

type notFound struct{ message string }

func NewNotFoundError(msg string) error { return &notFound{message: msg} }
func (e notFound) Error() string        { return e.message }

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*notFound)
	return ok
}

type conflict struct{ message string }

func NewConflictError(msg string) error { return &conflict{message: msg} }
func (e conflict) Error() string        { return e.message }

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*conflict)
	return ok
}

type forbidden struct{ message string }

func NewForbiddenError(msg string) error { return &forbidden{message: msg} }
func (e forbidden) Error() string        { return e.message }

func IsForbidden(err error) bool {
	_, ok := errors.Cause(err).(*forbidden)
	return ok
}

// PaymentRequiredError rejects an operation because a student's prior payment
// cycle is unsettled. It carries the student and the cycle window so the
// caller can act on it.
type PaymentRequiredError struct {
	StudentID   int
	WindowStart time.Time
	WindowEnd   time.Time
}

func (e PaymentRequiredError) Error() string {
	return fmt.Sprintf(
		"student %d has not settled the payment cycle %s - %s",
		e.StudentID, e.WindowStart.Format("2006-01-02"), e.WindowEnd.Format("2006-01-02"),
	)
}

func IsPaymentRequired(err error) bool {
	_, ok := errors.Cause(err).(*PaymentRequiredError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
