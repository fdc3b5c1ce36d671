package datasets

import (
	"errors"
	"fmt"

	"github.com/Noofbiz/photostereo/lights"
)

// NotFoundError reports a required file or directory that does not exist,
// including a frame pattern that matched nothing.
type NotFoundError struct {
	What string // "frames", "mask", "calibration file", ...
	Path string
	Err  error // underlying filesystem error, may be nil
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// FormatError reports calibration text that is not a rectangular numeric
// matrix.
type FormatError = lights.FormatError

// Invariant names a record invariant checked by Assemble.
type Invariant string

const (
	InvariantFrameOrder        Invariant = "frame-order"
	InvariantDimensions        Invariant = "dimensions"
	InvariantFrameCount        Invariant = "frame-count"
	InvariantFiniteValues      Invariant = "finite-values"
	InvariantUnitDirections    Invariant = "unit-directions"
	InvariantIntensityPositive Invariant = "intensity-positive"
)

// ValidationError reports the first record invariant that does not hold.
type ValidationError struct {
	Invariant Invariant
	Msg       string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid dataset (%s): %s", e.Invariant, e.Msg)
}

func invalid(inv Invariant, format string, args ...any) *ValidationError {
	return &ValidationError{Invariant: inv, Msg: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsFormat reports whether err is or wraps a *FormatError.
func IsFormat(err error) bool {
	var e *FormatError
	return errors.As(err, &e)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}
