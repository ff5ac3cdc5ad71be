package engine

import (
	"errors"
	"fmt"
)

// ErrCodeOutputMismatch reports a calculation whose outputs differ from its
// descriptor. It means the registry model and the calculations disagree.
const ErrCodeOutputMismatch = "E241"

// ContractError is raised when a module's declared and computed outputs differ.
type ContractError struct {
	Module     string
	Undeclared []string
	Missing    []string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: module %s: computed outputs do not match descriptor (undeclared %v, missing %v)",
		ErrCodeOutputMismatch, e.Module, e.Undeclared, e.Missing)
}

// ErrorCode returns the stable error code.
func (e *ContractError) ErrorCode() string { return ErrCodeOutputMismatch }

// IsContractError reports whether err is a ContractError.
func IsContractError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}

// Coder is implemented by every aquaplan error that carries a stable code.
type Coder interface {
	ErrorCode() string
}

// ErrorCode extracts the code from err, or "" when it has none.
func ErrorCode(err error) string {
	var c Coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}
