package viability

import (
	"errors"
	"fmt"
)

// Configuration error codes (E221-E229).
const (
	ErrCodeInvalidWeights = "E221"
	ErrCodeInvalidTiers   = "E222"
	ErrCodeInvalidData    = "E223" // a criterion's quantity has the wrong kind
)

// Error is a viability configuration or data error.
type Error struct {
	Code      string `json:"code"`
	Criterion string `json:"criterion,omitempty"`
	Message   string `json:"message"`
}

func (e *Error) Error() string {
	if e.Criterion != "" {
		return fmt.Sprintf("%s: criterion %s: %s", e.Code, e.Criterion, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the stable error code.
func (e *Error) ErrorCode() string { return e.Code }

// IsInvalidWeights reports whether err is an InvalidWeights error.
func IsInvalidWeights(err error) bool { return hasCode(err, ErrCodeInvalidWeights) }

// IsInvalidTiers reports whether err is an InvalidTiers error.
func IsInvalidTiers(err error) bool { return hasCode(err, ErrCodeInvalidTiers) }

func hasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// errMissing is returned by score functions when the criterion's data is
// absent. The matrix scores such a criterion 0 and marks it missing.
var errMissing = errors.New("data missing")
