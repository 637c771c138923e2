package errs

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type AlreadyExistsError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

// AlreadyProcessedError means an obligation's period marker was already stamped
// when the charge transaction re-read it.
type AlreadyProcessedError struct {
	ErrorMessage
}

type InsufficientFundsError struct {
	ErrorMessage
	Required  float64
	Available float64
	Shortfall float64
}

type DatabaseError struct {
	ErrorMessage
	Operation string
	Err       error
}

func (e *DatabaseError) Unwrap() error { return e.Err }

type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Transient bool
	Err       error
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

type EncryptionError struct {
	ErrorMessage
	Err error
}

func (e *EncryptionError) Unwrap() error { return e.Err }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewAlreadyExistsError(message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewAlreadyProcessedError(message string) *AlreadyProcessedError {
	return &AlreadyProcessedError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewInsufficientFundsError(required, available, shortfall float64) *InsufficientFundsError {
	return &InsufficientFundsError{
		ErrorMessage: ErrorMessage{Message: fmt.Sprintf("insufficient funds: short by %.2f", shortfall)},
		Required:     required,
		Available:    available,
		Shortfall:    shortfall,
	}
}

func NewDatabaseError(operation, message string, err error) *DatabaseError {
	return &DatabaseError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
		Err:          err,
	}
}

func NewExternalServiceError(service, message string, transient bool, err error) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
		Err:          err,
	}
}

func NewEncryptionError(message string, err error) *EncryptionError {
	return &EncryptionError{
		ErrorMessage: ErrorMessage{Message: message},
		Err:          err,
	}
}

// IsQuotaExceeded reports whether err (or anything it wraps) is a Firestore
// RESOURCE_EXHAUSTED status.
func IsQuotaExceeded(err error) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if s, ok := status.FromError(e); ok && s.Code() == codes.ResourceExhausted {
			return true
		}
	}
	return false
}
