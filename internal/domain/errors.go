// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyCart is returned when checkout is attempted on a session with no cart rows
var ErrEmptyCart = errors.New("Cart is empty")

// ErrCheckoutInProgress is returned when another checkout with the same
// idempotency key has not finished in time
var ErrCheckoutInProgress = errors.New("Checkout already in progress")

// ValidationError reports a missing or malformed request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a referenced record that does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFoundError creates a not found error for a resource id
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// StoreError wraps a failure of the underlying data store
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// WrapStoreError wraps err as a StoreError unless it already carries a domain meaning
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsClientError(err) {
		return err
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsClientError reports whether err is user-correctable
func IsClientError(err error) bool {
	return IsValidation(err) || IsNotFound(err) ||
		errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrCheckoutInProgress)
}
