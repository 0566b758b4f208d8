// Package apperrors defines the error taxonomy shared by the store, the
// analysis service, and the HTTP layer. Handlers map these onto status codes
// instead of inspecting error strings.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed request field. It is always
// raised before any mutation is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("validation failed: %s is required", e.Field)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ForbiddenError reports an operation rejected by policy, such as deleting
// a system-provenance tag.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Reason
}

// UpstreamError carries the status code and raw body of a failed answer
// engine call. It is never retried internally; callers decide.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("answer engine returned status %d: %s", e.StatusCode, e.Body)
}

// StorageError wraps a persistence-layer failure that is surfaced as-is.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError unless it already belongs to the
// taxonomy, so NotFound detected inside a store method survives wrapping.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var nf *NotFoundError
	var fb *ForbiddenError
	var vd *ValidationError
	if errors.As(err, &nf) || errors.As(err, &fb) || errors.As(err, &vd) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsNotFound reports whether err is a NotFoundError anywhere in its chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsForbidden reports whether err is a ForbiddenError anywhere in its chain.
func IsForbidden(err error) bool {
	var fb *ForbiddenError
	return errors.As(err, &fb)
}

// IsValidation reports whether err is a ValidationError anywhere in its chain.
func IsValidation(err error) bool {
	var vd *ValidationError
	return errors.As(err, &vd)
}

// IsUpstream reports whether err is an UpstreamError anywhere in its chain.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
