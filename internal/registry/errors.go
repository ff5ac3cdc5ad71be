package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Registry error codes (E201-E209). All of them are configuration errors that
// abort start-up.
const (
	ErrCodeUnknownModule      = "E201" // queried id not registered
	ErrCodeInvalidGraph       = "E202" // cycle, self-reference, dangling dependency
	ErrCodeInvalidDescriptor  = "E203" // malformed descriptor or model
	ErrCodeDuplicateOwnership = "E204" // two modules declare the same output
)

// Error is a registry configuration error.
type Error struct {
	Code    string
	Module  string
	Message string
	// Path holds the offending cycle for ErrCodeInvalidGraph, e.g. [a b a].
	Path []string
}

func (e *Error) Error() string {
	msg := e.Message
	if len(e.Path) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Path, " → "))
	}
	if e.Module != "" {
		return fmt.Sprintf("%s: %s (module=%s)", e.Code, msg, e.Module)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// ErrorCode returns the stable error code.
func (e *Error) ErrorCode() string { return e.Code }

// IsUnknownModule reports whether err is an UnknownModule error.
func IsUnknownModule(err error) bool {
	return hasCode(err, ErrCodeUnknownModule)
}

// IsInvalidGraph reports whether err is an InvalidModuleGraph error.
func IsInvalidGraph(err error) bool {
	return hasCode(err, ErrCodeInvalidGraph)
}

func hasCode(err error, code string) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func unknownModule(id string) *Error {
	return &Error{Code: ErrCodeUnknownModule, Module: id, Message: "module not registered"}
}
