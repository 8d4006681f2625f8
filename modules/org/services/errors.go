package services

import (
	"errors"
	"fmt"

	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
)

var (
	ErrNodeNotFound = orgtree.ErrNodeNotFound
	ErrDerivedField = errors.New("field is derived on this node")
	ErrInvalidInput = errors.New("invalid input")
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

// AsServiceError maps engine errors onto stable codes. Errors that are
// already ServiceErrors pass through; nil stays nil.
func AsServiceError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	switch {
	case errors.Is(err, ErrNodeNotFound):
		return newServiceError(404, "ORG_NODE_NOT_FOUND", "org node not found", err)
	case errors.Is(err, ErrDerivedField):
		return newServiceError(409, "ORG_DERIVED_FIELD", "field is derived from children", err)
	case errors.Is(err, ErrInvalidInput):
		return newServiceError(422, "ORG_INVALID_INPUT", "invalid input", err)
	default:
		return newServiceError(500, "ORG_INTERNAL", "internal error", err)
	}
}

// resultLabel is the metrics/log label for an edit outcome.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, ErrNodeNotFound):
		return "not_found"
	case errors.Is(err, ErrDerivedField):
		return "derived_field"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
