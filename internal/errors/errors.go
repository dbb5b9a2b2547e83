// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrUnknownBroker means the broker id was never registered. This is a
	// configuration defect, not a runtime condition, and is never retried.
	ErrUnknownBroker = errors.New("unknown broker")

	// ErrBrokerNotConnected means the broker has no valid session.
	// Recoverable via failover or an explicit connect.
	ErrBrokerNotConnected = errors.New("broker not connected")

	ErrBrokerNotConfigured = errors.New("broker credentials are not configured")
	ErrInvalidStrategy     = errors.New("invalid strategy")
	ErrInvalidParameters   = errors.New("invalid strategy parameters")
	ErrSessionExpired      = errors.New("session expired")
	ErrContractNotFound    = errors.New("option contract not found")

	// ErrJournalUnavailable means the trade journal could not be opened;
	// execution still works, journal queries do not.
	ErrJournalUnavailable = errors.New("trade journal unavailable")
)

// BrokerError represents an error from a broker API.
type BrokerError struct {
	Broker  string
	Code    string
	Message string
	Err     error
}

func (e *BrokerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broker error [%s/%s]: %s: %v", e.Broker, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("broker error [%s/%s]: %s", e.Broker, e.Code, e.Message)
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}

// NewBrokerError creates a new BrokerError.
func NewBrokerError(broker, code, message string, err error) *BrokerError {
	return &BrokerError{
		Broker:  broker,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error on a request field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Is allows ValidationError to match ErrInvalidParameters in errors.Is chains.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidParameters
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
