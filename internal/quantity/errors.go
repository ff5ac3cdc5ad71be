package quantity

import (
	"errors"
	"fmt"
)

// ErrCodeOwnership is reported when a producer writes a quantity it does not own.
const ErrCodeOwnership = "E232"

// OwnershipError reports an attempt to overwrite a quantity produced elsewhere.
type OwnershipError struct {
	Name     string
	Owner    string
	Producer string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("%s: quantity %q is owned by %q, not %q", ErrCodeOwnership, e.Name, e.Owner, e.Producer)
}

// ErrorCode returns the stable error code.
func (e *OwnershipError) ErrorCode() string { return ErrCodeOwnership }

// IsOwnershipError reports whether err wraps an OwnershipError.
func IsOwnershipError(err error) bool {
	var oe *OwnershipError
	return errors.As(err, &oe)
}
