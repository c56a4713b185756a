package services

import (
	"errors"
	"fmt"

	"github.com/Dias221467/groupchat/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error kinds. Every precondition failure returned by the services wraps
// exactly one of them.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// ServiceError carries a short user-facing message for a precondition
// failure of the given kind.
type ServiceError struct {
	Kind    error
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func (e *ServiceError) Unwrap() error { return e.Kind }

func validationf(format string, args ...interface{}) error {
	return &ServiceError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...interface{}) error {
	return &ServiceError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...interface{}) error {
	return &ServiceError{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Message returns the user-facing message of a ServiceError, or "" for any
// other error.
func Message(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}

// parseID converts a hex identity reference, reporting malformed input as
// a validation error.
func parseID(raw, msg string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, validationf("%s", msg)
	}
	return id, nil
}

// mapNotFound turns a repository miss into a NotFound service error.
func mapNotFound(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundf("%s", msg)
	}
	return err
}
