package calculator

import (
	"errors"
	"fmt"
)

// Validation error kinds reported by ComputeSplit. Match them with errors.Is.
var (
	ErrInvalidTotalAmount       = errors.New("invalid total amount")
	ErrUnsupportedSplitMethod   = errors.New("unsupported split method")
	ErrEmptyParticipantSet      = errors.New("participants must not be empty")
	ErrDuplicateParticipant     = errors.New("duplicate participant")
	ErrInvalidParticipantID     = errors.New("participant id must not be empty")
	ErrPercentageSumMismatch    = errors.New("percentage shares must sum to 100")
	ErrExactSumMismatch         = errors.New("exact shares must sum to total amount")
	ErrInvalidParticipantAmount = errors.New("invalid participant amount")
)

// ValidationError carries the offending field and value for one of the
// error kinds above.
type ValidationError struct {
	Kind  error
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Value)
	}
	return fmt.Sprintf("%s: %s=%s", e.Kind, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func invalid(kind error, field, value string) error {
	return &ValidationError{Kind: kind, Field: field, Value: value}
}
