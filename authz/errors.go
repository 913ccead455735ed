package authz

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUnauthenticated = errors.New("unauthenticated: no valid requester identity")
	ErrForbidden       = errors.New("forbidden: you don't have permission to perform this action")
	ErrNotFound        = errors.New("resource not found")
	ErrIntegrity       = errors.New("referenced parent does not exist")
	ErrAlreadyExists   = errors.New("resource already exists")
	ErrInvalidInput    = errors.New("invalid input")
)

// DeniedError is a deny decision surfaced as an error. It matches ErrForbidden.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	if e.Reason == "" {
		return ErrForbidden.Error()
	}
	return e.Reason
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrForbidden
}

// NotFoundError names the first missing link of a chain. It matches ErrNotFound,
// and ErrIntegrity as well when the missing link is an intermediate parent.
type NotFoundError struct {
	Kind      ResourceType
	ID        string
	Integrity bool
}

func (e *NotFoundError) Error() string {
	if e.Integrity {
		return fmt.Sprintf("%s does not exist", e.Kind)
	}
	return fmt.Sprintf("%s not found", e.Kind)
}

func (e *NotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	return e.Integrity && target == ErrIntegrity
}

// Invalid wraps ErrInvalidInput with a field-specific message
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
