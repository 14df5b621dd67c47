package readonly

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSupported is wrapped by every DeprecatedError.
	ErrNotSupported = errors.New("operation no longer supported")
	// ErrUnknownOp is returned by Invoke for names that are not operations.
	ErrUnknownOp = errors.New("unknown operation")
)

// DeprecatedError is returned by every disabled operation. It is permanent:
// callers must not retry.
type DeprecatedError struct {
	ContentType string
	Op          Op
}

func (e *DeprecatedError) Error() string {
	return fmt.Sprintf("%s.%s: %s, edit this content in the CMS", e.ContentType, e.Op, ErrNotSupported)
}

func (e *DeprecatedError) Unwrap() error {
	return ErrNotSupported
}

// Permanent always reports true.
func (e *DeprecatedError) Permanent() bool {
	return true
}

// IsDeprecated reports whether err came from a disabled operation.
func IsDeprecated(err error) bool {
	var de *DeprecatedError
	return errors.As(err, &de)
}
