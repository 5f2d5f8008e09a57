package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidReference is returned when a write points at a missing row.
	ErrInvalidReference = errors.New("invalid reference")
)

const (
	pqUniqueViolation     pq.ErrorCode = "23505"
	pqForeignKeyViolation pq.ErrorCode = "23503"
)

// ConstraintError records which constraint rejected a write.
type ConstraintError struct {
	Constraint string
	Err        error
	cause      error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v (constraint %q): %v", e.Err, e.Constraint, e.cause)
}

func (e *ConstraintError) Unwrap() []error {
	return []error{e.Err, e.cause}
}

// classify maps driver errors onto the store sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return &ConstraintError{Constraint: pqErr.Constraint, Err: ErrDuplicate, cause: err}
		case pqForeignKeyViolation:
			return &ConstraintError{Constraint: pqErr.Constraint, Err: ErrInvalidReference, cause: err}
		}
	}
	return err
}

// ConstraintName returns the violated constraint carried by err, if any.
func ConstraintName(err error) string {
	var constraintErr *ConstraintError
	if errors.As(err, &constraintErr) {
		return constraintErr.Constraint
	}
	return ""
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
