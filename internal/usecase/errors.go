package usecase

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError is one invalid/missing field on an intake or admin call.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError rejects a request synchronously; it is never queued.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ConflictError signals a duplicate identifier. Duplicates are rejected, not
// silently merged.
type ConflictError struct {
	Resource string
	ID       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Resource, e.ID)
}

func IsConflictError(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// NotFoundError is an explicit not-found result, not a generic failure.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func IsNotFoundError(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// SecurityError marks a webhook signature verification failure. It is logged
// and rejected outright; the payload is never processed as a fallback since
// this webhook gates PII release.
type SecurityError struct {
	Reason string
}

func (e *SecurityError) Error() string {
	return "security: " + e.Reason
}

func IsSecurityError(err error) bool {
	var s *SecurityError
	return errors.As(err, &s)
}

// UpstreamError wraps an SMS or payment-processor call failure. The state
// machine does not retry internally; the interaction stays in its pre-call
// status so the transport-level caller can retry safely.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func IsUpstreamError(err error) bool {
	var u *UpstreamError
	return errors.As(err, &u)
}
