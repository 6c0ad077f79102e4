package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrNotFound is returned when a requested resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when credentials or tokens are rejected
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}

// ErrInvalidStateTransition is returned when an order cannot move to the requested status
type ErrInvalidStateTransition struct {
	From string
	To   string
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrValidation is a locally detected input problem. It never reaches a remote capability.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Message
}

// AuthenticationRequired is the code surfaced to clients that must sign in first.
const AuthenticationRequired = "AUTHENTICATION_REQUIRED"

// ErrAuthenticationRequired signals that the caller has to sign in before the
// operation can run. It is kept apart from other failures so clients can redirect.
type ErrAuthenticationRequired struct {
	Operation string
}

func (e *ErrAuthenticationRequired) Error() string {
	return AuthenticationRequired
}

// ErrCapability wraps a provider error code together with its user-facing message
type ErrCapability struct {
	Code    string
	Message string
}

func (e *ErrCapability) Error() string {
	return e.Message
}

// IsNotFound reports whether err is (or wraps) an ErrNotFound
func IsNotFound(err error) bool {
	var target *ErrNotFound
	return stderrors.As(err, &target)
}

// IsAuthenticationRequired reports whether err is (or wraps) an ErrAuthenticationRequired
func IsAuthenticationRequired(err error) bool {
	var target *ErrAuthenticationRequired
	return stderrors.As(err, &target)
}

// IsValidation reports whether err is (or wraps) an ErrValidation
func IsValidation(err error) bool {
	var target *ErrValidation
	return stderrors.As(err, &target)
}

// AsCapability unwraps err into an ErrCapability when possible
func AsCapability(err error) (*ErrCapability, bool) {
	var target *ErrCapability
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsInvalidStateTransition reports whether err is (or wraps) an ErrInvalidStateTransition
func IsInvalidStateTransition(err error) bool {
	var target *ErrInvalidStateTransition
	return stderrors.As(err, &target)
}

// IsUnauthorized reports whether err is (or wraps) an ErrUnauthorized
func IsUnauthorized(err error) bool {
	var target *ErrUnauthorized
	return stderrors.As(err, &target)
}

// ErrConflict is returned when a unique field is already taken
type ErrConflict struct {
	Resource string
	Field    string
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("%s with this %s already exists", e.Resource, e.Field)
}

// AsConflict unwraps err into an ErrConflict when possible
func AsConflict(err error) (*ErrConflict, bool) {
	var target *ErrConflict
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}
