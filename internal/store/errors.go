package store

import (
	"errors"
	"fmt"
)

// ErrCodeProjectNotFound is returned for unknown project ids.
const ErrCodeProjectNotFound = "E231"

// NotFoundError reports an unknown project.
type NotFoundError struct {
	ProjectID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: project %q not found", ErrCodeProjectNotFound, e.ProjectID)
}

// ErrorCode returns the stable error code.
func (e *NotFoundError) ErrorCode() string { return ErrCodeProjectNotFound }

// IsProjectNotFound reports whether err is a NotFoundError.
func IsProjectNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
