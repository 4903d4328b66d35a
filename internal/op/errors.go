package op

import (
	"errors"
	"fmt"
)

// Error represents a failure of an operation-model operation.
//
// Errors include:
//   - Shape mismatch: bit lists disagree with an operation's declared counts
//   - Not an operation: a value without the Operator capability was appended
//   - Non-invertible: a definition contains measurement, reset, or a conditional step
//   - Opaque: an operation without a definition was asked to expand
//   - Invalid label: a label that is neither a string nor nil
//
// None of these errors are retryable.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Operation names the operation involved, when there is one.
	Operation string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes operation-model errors.
type ErrorCode string

const (
	// ErrCodeShape indicates bit lists disagree with declared counts, are out of range, or repeat.
	ErrCodeShape ErrorCode = "SHAPE_MISMATCH"

	// ErrCodeNotOperation indicates a value lacking the Operator capability.
	ErrCodeNotOperation ErrorCode = "NOT_OPERATION"

	// ErrCodeNonInvertible indicates a measurement, reset or conditional step blocks inversion.
	ErrCodeNonInvertible ErrorCode = "NON_INVERTIBLE"

	// ErrCodeOpaque indicates an operation without a definition.
	ErrCodeOpaque ErrorCode = "OPAQUE"

	// ErrCodeInvalidLabel indicates a label that is neither a string nor nil.
	ErrCodeInvalidLabel ErrorCode = "INVALID_LABEL"

	// ErrCodeNotUnitary indicates a program that cannot become a gate.
	ErrCodeNotUnitary ErrorCode = "NOT_UNITARY"

	// ErrCodeEmptyProgram indicates a program with no steps where steps are required.
	ErrCodeEmptyProgram ErrorCode = "EMPTY_PROGRAM"

	// ErrCodeUnknownBit indicates a bit index outside the available bit space.
	ErrCodeUnknownBit ErrorCode = "UNKNOWN_BIT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s: %s (operation=%s)", e.Code, e.Message, e.Operation)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code, true
	}
	return "", false
}

// HasCode reports whether err's chain carries an *Error with code.
func HasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsShapeError returns true if the error is a shape mismatch.
// Uses errors.As to handle wrapped errors.
func IsShapeError(err error) bool {
	return HasCode(err, ErrCodeShape)
}

// IsNonInvertible returns true if the operation cannot be inverted,
// either because a step blocks inversion or because it is opaque.
func IsNonInvertible(err error) bool {
	c, ok := CodeOf(err)
	return ok && (c == ErrCodeNonInvertible || c == ErrCodeOpaque)
}

// IsLabelError returns true if the error is an invalid label error.
func IsLabelError(err error) bool {
	return HasCode(err, ErrCodeInvalidLabel)
}

// IsNotOperation returns true if a value without the Operator capability was used.
func IsNotOperation(err error) bool {
	return HasCode(err, ErrCodeNotOperation)
}

// NewShapeError creates an Error for bit lists that disagree with declared counts.
func NewShapeError(name string, wantQubits, wantClbits, gotQubits, gotClbits int) *Error {
	return &Error{
		Code: ErrCodeShape,
		Message: fmt.Sprintf("expected %d qubits and %d clbits, got %d and %d",
			wantQubits, wantClbits, gotQubits, gotClbits),
		Operation: name,
		Details: map[string]string{
			"want_qubits": fmt.Sprintf("%d", wantQubits),
			"want_clbits": fmt.Sprintf("%d", wantClbits),
			"got_qubits":  fmt.Sprintf("%d", gotQubits),
			"got_clbits":  fmt.Sprintf("%d", gotClbits),
		},
	}
}

// NewParamCountError creates an Error for a parameter list of the wrong length.
func NewParamCountError(name string, want, got int) *Error {
	return &Error{
		Code:      ErrCodeShape,
		Message:   fmt.Sprintf("expected %d params, got %d", want, got),
		Operation: name,
		Details: map[string]string{
			"want_params": fmt.Sprintf("%d", want),
			"got_params":  fmt.Sprintf("%d", got),
		},
	}
}

// NewOpaqueError creates an Error for an operation with no definition.
func NewOpaqueError(name, action string) *Error {
	return &Error{
		Code:      ErrCodeOpaque,
		Message:   fmt.Sprintf("cannot %s opaque operation", action),
		Operation: name,
	}
}

// NewNonInvertibleError creates an Error for a step that blocks inversion.
func NewNonInvertibleError(name, reason string) *Error {
	return &Error{
		Code:      ErrCodeNonInvertible,
		Message:   reason,
		Operation: name,
	}
}

// NewLabelError creates an Error for a label that is not a string or nil.
func NewLabelError(v any) *Error {
	return &Error{
		Code:    ErrCodeInvalidLabel,
		Message: fmt.Sprintf("label expects a string or nil, got %T", v),
	}
}

// NewNotOperationError creates an Error for a value that cannot be appended.
func NewNotOperationError(v any, hint string) *Error {
	msg := fmt.Sprintf("object %T does not implement op.Operator", v)
	if hint != "" {
		msg += ": " + hint
	}
	return &Error{
		Code:    ErrCodeNotOperation,
		Message: msg,
	}
}
