package apperrors

import (
	"errors"
	"fmt"
)

// RetryableError marks a failure that a later attempt may not repeat, such as
// a provider timeout or a 5xx response.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryable wraps err as retryable behind a formatted message
func NewRetryable(err error, message string, args ...interface{}) error {
	return &RetryableError{Err: wrap(err, message, args...)}
}

// FatalError marks a failure that stops a whole run, such as a missing provider endpoint.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatal wraps err as fatal behind a formatted message
func NewFatal(err error, message string, args ...interface{}) error {
	return &FatalError{Err: wrap(err, message, args...)}
}

func wrap(err error, message string, args ...interface{}) error {
	return fmt.Errorf(message+": %w", append(args, err)...)
}

// Sentinels, checked with errors.Is through any wrapping
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrDatabase     = errors.New("database error")
	ErrNATS         = errors.New("nats communication error")
	ErrUnauthorized = errors.New("unauthorized access") // no tenant in context
	ErrDuplicate    = errors.New("duplicate resource")
	ErrBadRequest   = errors.New("bad request")
	ErrTimeout      = errors.New("operation timeout")
	ErrRateLimited  = errors.New("rate limited")

	// ErrConfiguration means a run cannot start: a required endpoint or credential is missing.
	ErrConfiguration = errors.New("configuration error")

	// ErrChannel means the messaging provider rejected or never received an outbound message.
	ErrChannel = errors.New("channel send failed")
)

// IsRetryable reports whether err is or wraps a RetryableError
func IsRetryable(err error) bool {
	var target *RetryableError
	return errors.As(err, &target)
}

// IsFatal reports whether err is or wraps a FatalError
func IsFatal(err error) bool {
	var target *FatalError
	return errors.As(err, &target)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

func IsBadRequestError(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func IsRateLimitedError(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
