// Package lights produces per-frame light directions for photometric stereo
// datasets.
//
// Directions come from one of two places:
//   - Hemisphere synthesizes a deterministic golden-ratio spiral over the upper
//     hemisphere when a capture has no calibration.
//   - ParseCalibration / ReadCalibration read a calibration text file and
//     Orient reshapes it into one row per frame.
//
// Whatever the origin, FlipYZ converts the N×3 result into the internal axis
// convention consumed by the optimizer.
package lights

import "fmt"

// FormatError reports calibration text that is not a rectangular numeric
// matrix, or a matrix whose shape cannot be read as light directions.
type FormatError struct {
	Path  string // empty when parsing from a reader
	Line  int    // 1-based, 0 when the problem is not tied to a line
	Token string // offending token, if any
	Msg   string
}

func (e *FormatError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "calibration"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
	}
	if e.Token != "" {
		return fmt.Sprintf("%s: %s (token %q)", loc, e.Msg, e.Token)
	}
	return fmt.Sprintf("%s: %s", loc, e.Msg)
}
