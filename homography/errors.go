package homography

import (
	"errors"
	"fmt"
)

// MinPoints is the least number of correspondences a homography needs
const MinPoints = 4

var (
	// ErrInsufficientPoints matches a CalibrationError raised because fewer
	// than MinPoints correspondences were supplied
	ErrInsufficientPoints = errors.New("insufficient calibration points")
	// ErrMalformedInput matches a CalibrationError raised for calibration
	// data that could not be parsed
	ErrMalformedInput = errors.New("malformed calibration input")
	// ErrDegenerateGeometry matches a CalibrationError raised when no
	// transform can be estimated from the points, eg: they are collinear
	ErrDegenerateGeometry = errors.New("degenerate calibration geometry")
	// ErrNotCalibrated is returned when a transform is requested before a
	// successful Calculate.  It always indicates a sequencing bug in the caller
	ErrNotCalibrated = errors.New("homography not calculated, call Calculate() first")
)

// ErrorKind classifies a CalibrationError
type ErrorKind int

const (
	InsufficientPoints ErrorKind = 1
	MalformedInput     ErrorKind = 2
	DegenerateGeometry ErrorKind = 3
)

// String returns the name of the error kind
func (k ErrorKind) String() string {
	switch k {
	case InsufficientPoints:
		return "InsufficientPoints"
	case MalformedInput:
		return "MalformedInput"
	case DegenerateGeometry:
		return "DegenerateGeometry"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

func (k ErrorKind) sentinel() error {
	switch k {
	case InsufficientPoints:
		return ErrInsufficientPoints
	case MalformedInput:
		return ErrMalformedInput
	case DegenerateGeometry:
		return ErrDegenerateGeometry
	}
	return nil
}

// CalibrationError reports calibration data that can not produce a usable
// homography.  It is caused by bad input, so retrying without fixing the
// calibration points will not help.
type CalibrationError struct {
	Kind ErrorKind
	// Points is the number of correspondences that were available
	Points int
	// Err is the underlying cause, may be nil
	Err error
}

// Error implements the error interface
func (e *CalibrationError) Error() string {
	switch e.Kind {
	case InsufficientPoints:
		return fmt.Sprintf("%v: loaded %d point correspondences, need at least %d",
			ErrInsufficientPoints, e.Points, MinPoints)
	case MalformedInput:
		if e.Err != nil {
			return fmt.Sprintf("%v: %v", ErrMalformedInput, e.Err)
		}
		return ErrMalformedInput.Error()
	case DegenerateGeometry:
		if e.Err != nil {
			return fmt.Sprintf("%v with %d point correspondences: %v", ErrDegenerateGeometry, e.Points, e.Err)
		}
		return fmt.Sprintf("%v with %d point correspondences", ErrDegenerateGeometry, e.Points)
	}
	return fmt.Sprintf("calibration error (%v)", e.Kind)
}

// Unwrap returns the underlying cause
func (e *CalibrationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the sentinel error of the kind
func (e *CalibrationError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func malformed(format string, a ...interface{}) error {
	return &CalibrationError{Kind: MalformedInput, Err: fmt.Errorf(format, a...)}
}

func degenerate(points int, cause error) error {
	return &CalibrationError{Kind: DegenerateGeometry, Points: points, Err: cause}
}
