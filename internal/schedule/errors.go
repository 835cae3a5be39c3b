package schedule

import "errors"

var (
	ErrUnknownSlot      = errors.New("unknown slot")
	ErrUnknownTeam      = errors.New("unknown team")
	ErrAlreadyAssigned  = errors.New("slot already assigned")
	ErrNotAssigned      = errors.New("slot is not assigned")
	ErrVersionConflict  = errors.New("slot was modified by someone else")
	ErrMissingSelection = errors.New("missing selection")
	ErrInvalidSlot      = errors.New("invalid slot")
)

// ValidationError marks a failure caught before an operation was executed.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// ExecutionError marks a failure reported by a collaborator after the
// operation was attempted.
type ExecutionError struct {
	Op  string
	Err error
}

func (e *ExecutionError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *ExecutionError) Unwrap() error { return e.Err }

// Invalid wraps err as a ValidationError.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// Failed wraps err as an ExecutionError for op.
func Failed(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ExecutionError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsExecution(err error) bool {
	var e *ExecutionError
	return errors.As(err, &e)
}
