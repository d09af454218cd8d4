package errors

import (
	"errors"
	"fmt"
)

// ClassifiedError is an error carrying category, severity and retry classification.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// Error implements the standard error interface.
func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

// Message returns the bare message without classification prefix or cause.
// HTTP responses use this so diagnostic text stays readable for the caller.
func (e *ClassifiedError) Message() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap implements Go 1.13+ error unwrapping.
func (e *ClassifiedError) Unwrap() error { return e.cause }

// Category returns the error category.
func (e *ClassifiedError) Category() ErrorCategory { return e.category }

// Severity returns the error severity.
func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }

// Retry returns the retry strategy.
func (e *ClassifiedError) Retry() RetryStrategy { return e.retry }

// Context returns the structured error context.
func (e *ClassifiedError) Context() ErrorContext { return e.context }

// AsClassified returns the ClassifiedError in err's chain, if any.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, category ErrorCategory) bool {
	if ce, ok := AsClassified(err); ok {
		return ce.Category() == category
	}
	return false
}

// IsRetryable reports whether err is classified as worth retrying.
func IsRetryable(err error) bool {
	if ce, ok := AsClassified(err); ok {
		return ce.Retry() == RetryBackoff
	}
	return false
}
