package apperr

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Sentinels for errors.Is checks across layers.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("concurrency conflict")
	ErrStorage           = errors.New("storage failure")
)

// ValidationError names the offending field. Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError covers missing resources and resources outside the
// actor's scope.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// InsufficientStockError carries the product and the available quantity
// so the caller can resubmit with adjusted quantities.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

func InsufficientStock(productID string, requested, available int) error {
	return &InsufficientStockError{ProductID: productID, Requested: requested, Available: available}
}

// ConflictError is the one class eligible for a bounded transparent
// retry of the whole transaction.
type ConflictError struct {
	Cause error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict: %v", e.Cause)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func (e *ConflictError) Unwrap() error { return e.Cause }

func Conflict(cause error) error { return &ConflictError{Cause: cause} }

// StorageError wraps persistence failures. The transaction is rolled
// back and the failure surfaced as fatal for the operation.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Cause)
}

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func (e *StorageError) Unwrap() error { return e.Cause }

func Storage(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &StorageError{Op: op, Cause: cause}
}

// Postgres error classes that mean the transaction raced another one
// and is worth re-running.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// ClassifyPG maps a postgres error to the taxonomy. Serialization
// failures, deadlocks, and unique violations (two transactions issuing
// the same sale number) are conflicts; everything else is a storage
// failure.
func ClassifyPG(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
			return Conflict(err)
		}
	}
	return Storage(op, err)
}
