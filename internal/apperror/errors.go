// Package apperror defines the error taxonomy shared by the query, mutation
// and event services. Callers inspect errors with errors.Is/errors.As; the
// message texts are part of the API surface and include the offending UUID.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel values for errors.Is checks across package boundaries.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStorage      = errors.New("storage operation failed")
	ErrUnroutable   = errors.New("unroutable event")
)

// NotFoundError reports that an id lookup failed. The storage adapter does not
// distinguish a missing document from a transport failure, so both surface here.
type NotFoundError struct {
	ID  string
	msg string
}

func NewNotFound(entity, id string) *NotFoundError {
	return &NotFoundError{
		ID:  id,
		msg: fmt.Sprintf("%s with UUID: `%s` not found.", entity, id),
	}
}

// NewNotFoundMessage builds a NotFoundError with a pre-formatted message for
// lookups that are not plain id lookups (e.g. variant-in-cart queries).
func NewNotFoundMessage(id, msg string) *NotFoundError {
	return &NotFoundError{ID: id, msg: msg}
}

func (e *NotFoundError) Error() string        { return e.msg }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError reports that a referenced entity is not present in the local
// projection, typically because its upstream creation event has not arrived.
type ValidationError struct {
	ID  string
	msg string
}

func NewMissingProductVariant(id string) *ValidationError {
	return &ValidationError{
		ID:  id,
		msg: fmt.Sprintf("Product variant with the UUID: `%s` is not present in the system.", id),
	}
}

func (e *ValidationError) Error() string        { return e.msg }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnauthorizedError reports that the authenticated caller does not own the
// aggregate it tries to access.
type UnauthorizedError struct {
	OwnerID string
}

func NewUnauthorized(ownerID string) *UnauthorizedError {
	return &UnauthorizedError{OwnerID: ownerID}
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("Caller is not authorized to access shopping cart of user with UUID: `%s`.", e.OwnerID)
}
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// StorageError reports a write that did not succeed.
type StorageError struct {
	msg string
	err error
}

func NewStorage(msg string, err error) *StorageError {
	return &StorageError{msg: msg, err: err}
}

func (e *StorageError) Error() string        { return e.msg }
func (e *StorageError) Unwrap() error        { return e.err }
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// UnroutableEventError reports an inbound event with a topic this service does
// not subscribe to; the bus interprets the resulting 500 as "redeliver".
type UnroutableEventError struct {
	Topic string
}

func NewUnroutableEvent(topic string) *UnroutableEventError {
	return &UnroutableEventError{Topic: topic}
}

func (e *UnroutableEventError) Error() string {
	return fmt.Sprintf("event topic `%s` is not handled by this service", e.Topic)
}
func (e *UnroutableEventError) Is(target error) bool { return target == ErrUnroutable }
