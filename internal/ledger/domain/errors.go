package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrMonthClosed indicates a write into a closed month.
	ErrMonthClosed = errors.New("ledger: month closed")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError constructs a validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RepoError wraps a storage failure.
type RepoError struct {
	Op  string
	Err error
}

func (e *RepoError) Error() string {
	return fmt.Sprintf("repo: %s: %v", e.Op, e.Err)
}

func (e *RepoError) Unwrap() error { return e.Err }

// WrapRepo wraps err as a RepoError unless it already carries a known kind.
func WrapRepo(op string, err error) error {
	if err == nil {
		return nil
	}
	var repoErr *RepoError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.As(err, &repoErr) {
		return err
	}
	return &RepoError{Op: op, Err: err}
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
