package process

import (
	"errors"
	"fmt"
	"strings"
)

// Caller error codes (E211-E219). These are recovered by the form layer and
// shown next to the offending field; they never abort the process.
const (
	ErrCodeMissingInput      = "E211" // required inputs absent from the store
	ErrCodeOutOfRange        = "E212" // physically invalid input
	ErrCodeCriterionRejected = "E213" // failed flag whose policy is reject
	ErrCodeUnknownParam      = "E214" // form supplied a parameter the module does not take
	ErrCodeUnknownProcess    = "E215" // no calculation registered for the id
	ErrCodeBlocked           = "E216" // an upstream must-pass criterion failed
)

// InputError is a structured, field-level caller error.
type InputError struct {
	Code     string   `json:"code"`
	Module   string   `json:"module"`
	Quantity string   `json:"quantity,omitempty"`
	Value    float64  `json:"value,omitempty"`
	Allowed  string   `json:"allowed,omitempty"`
	Missing  []string `json:"missing,omitempty"`
	Blocking []string `json:"blocking,omitempty"`
	Message  string   `json:"message"`
}

func (e *InputError) Error() string {
	switch e.Code {
	case ErrCodeMissingInput:
		return fmt.Sprintf("%s: %s: missing inputs %s", e.Code, e.Module, strings.Join(e.Missing, ", "))
	case ErrCodeBlocked:
		return fmt.Sprintf("%s: %s: blocked by failed %s", e.Code, e.Module, strings.Join(e.Blocking, ", "))
	case ErrCodeOutOfRange, ErrCodeCriterionRejected:
		return fmt.Sprintf("%s: %s: %s = %g outside %s", e.Code, e.Module, e.Quantity, e.Value, e.Allowed)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Module, e.Message)
	}
}

// ErrorCode returns the stable error code.
func (e *InputError) ErrorCode() string { return e.Code }

// NewMissingInput reports required inputs that are absent.
func NewMissingInput(module string, missing []string) *InputError {
	return &InputError{
		Code:    ErrCodeMissingInput,
		Module:  module,
		Missing: append([]string(nil), missing...),
		Message: "required inputs are missing",
	}
}

// NewBlocked reports failed must-pass criteria upstream of module.
func NewBlocked(module string, criteria []string) *InputError {
	return &InputError{
		Code:     ErrCodeBlocked,
		Module:   module,
		Blocking: append([]string(nil), criteria...),
		Message:  "upstream must-pass criteria failed",
	}
}

func outOfRange(module, name string, v float64, lim Limit) *InputError {
	return &InputError{
		Code:     ErrCodeOutOfRange,
		Module:   module,
		Quantity: name,
		Value:    v,
		Allowed:  lim.String(),
		Message:  "input outside physical limits",
	}
}

// IsMissingInput reports whether err is a MissingInput error.
func IsMissingInput(err error) bool { return hasCode(err, ErrCodeMissingInput) }

// IsBlocked reports whether err is a Blocked error.
func IsBlocked(err error) bool { return hasCode(err, ErrCodeBlocked) }

// IsOutOfRange reports whether err is an OutOfRange error. Rejected criteria
// count as out of range.
func IsOutOfRange(err error) bool {
	return hasCode(err, ErrCodeOutOfRange) || hasCode(err, ErrCodeCriterionRejected)
}

func hasCode(err error, code string) bool {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie.Code == code
	}
	return false
}
