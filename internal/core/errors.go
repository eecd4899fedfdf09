package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when a transaction id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable marks failures of the underlying database.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports a missing or unparseable input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// StoreError wraps a database failure with the operation that produced it.
// It matches ErrStoreUnavailable under errors.Is.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func validationFromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Message: field + " is required"}
	case "datetime":
		return &ValidationError{Field: field, Message: field + " must be a date in YYYY-MM-DD format"}
	case "max":
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s too long (max %s characters)", field, fe.Param())}
	default:
		return &ValidationError{Field: field, Message: field + " is invalid"}
	}
}
