package dispatch

import (
	"errors"
	"fmt"
)

// Class buckets a handler failure for central response mapping.
type Class uint8

const (
	// ClassUnauthenticated: no identity and the event is not entry-listed.
	ClassUnauthenticated Class = iota
	// ClassUnauthorized: identity present but a required capability is off.
	ClassUnauthorized
	// ClassValidation: handler-level input rejection, user can correct it.
	ClassValidation
	// ClassNotFound: referenced domain entity is missing.
	ClassNotFound
	// ClassConflict: session version mismatch during concurrent mutation.
	ClassConflict
	// ClassInfrastructure: a collaborator call failed; terminal for the event.
	ClassInfrastructure
)

// Error is a classified dispatch failure. All handler failures are caught
// at the dispatch boundary and converted to a Response; none escape to
// the processing loop.
type Error struct {
	Class   Class
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code(), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code(), e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Code returns the machine name used as err_code in logs.
func (e *Error) Code() string {
	switch e.Class {
	case ClassUnauthenticated:
		return "UNAUTHENTICATED"
	case ClassUnauthorized:
		return "UNAUTHORIZED"
	case ClassValidation:
		return "VALIDATION"
	case ClassNotFound:
		return "NOT_FOUND"
	case ClassConflict:
		return "CONFLICT"
	case ClassInfrastructure:
		return "INFRASTRUCTURE"
	}
	return "UNKNOWN"
}

// Unauthenticated builds a no-identity rejection. The dispatch chain
// terminates unregistered users with it so the failure still carries an
// err_code.
func Unauthenticated(message string) *Error {
	return &Error{Class: ClassUnauthenticated, Message: message}
}

// Unauthorized builds a capability rejection with a user-visible message.
func Unauthorized(message string) *Error {
	return &Error{Class: ClassUnauthorized, Message: message}
}

// Validation builds an input rejection with a corrective message.
func Validation(message string) *Error {
	return &Error{Class: ClassValidation, Message: message}
}

// NotFound builds a missing-entity notice.
func NotFound(message string) *Error {
	return &Error{Class: ClassNotFound, Message: message}
}

// Infra wraps a failed collaborator call.
func Infra(op string, cause error) *Error {
	return &Error{Class: ClassInfrastructure, Message: op, Cause: cause}
}

// ClassOf extracts the dispatch class from an error chain, defaulting to
// infrastructure for unclassified failures.
func ClassOf(err error) Class {
	var de *Error
	if errors.As(err, &de) {
		return de.Class
	}
	return ClassInfrastructure
}

// ErrStateHandlerMissing marks a configuration defect: an identity holds
// an active session but no handler is registered for its (workflow,
// state). The router surfaces it loudly instead of falling through.
var ErrStateHandlerMissing = errors.New("dispatch: no handler for active workflow state")
