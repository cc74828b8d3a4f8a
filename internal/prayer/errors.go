package prayer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUndefinedTime marks a boundary that does not occur on the requested
	// day at the requested latitude.
	ErrUndefinedTime = errors.New("prayer time cannot be computed")

	// ErrInvalidInput marks coordinates or offsets outside the documented range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrScheduleOrder marks a computed schedule whose boundaries are not
	// strictly increasing in stage order.
	ErrScheduleOrder = errors.New("schedule boundaries out of order")
)

// InputError reports a rejected input value.
type InputError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%v: %s %v: %s", ErrInvalidInput, e.Field, e.Value, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// BoundaryError reports the stage whose start could not be computed.
// Err is the underlying solar domain error.
type BoundaryError struct {
	Stage Stage
	Err   error
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Stage, ErrUndefinedTime, e.Err)
}

func (e *BoundaryError) Unwrap() []error {
	return []error{ErrUndefinedTime, e.Err}
}

// OrderError reports a schedule whose boundaries are not strictly increasing.
type OrderError struct {
	Date       time.Time
	Boundaries [StageCount]Boundary
}

func (e *OrderError) Error() string {
	parts := make([]string, 0, StageCount)
	for _, b := range e.Boundaries {
		parts = append(parts, fmt.Sprintf("%s=%s", b.Stage, b.Time.Format("01-02 15:04")))
	}
	return fmt.Sprintf("%v on %s: %s", ErrScheduleOrder, e.Date.Format("2006-01-02"), strings.Join(parts, " "))
}

func (e *OrderError) Unwrap() error {
	return ErrScheduleOrder
}

// FailedStages extracts the stages named by BoundaryErrors anywhere in err.
func FailedStages(err error) []Stage {
	var stages []Stage
	collectFailed(err, &stages)
	return stages
}

func collectFailed(err error, out *[]Stage) {
	if err == nil {
		return
	}
	if be, ok := err.(*BoundaryError); ok {
		*out = append(*out, be.Stage)
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			collectFailed(e, out)
		}
		return
	}
	collectFailed(errors.Unwrap(err), out)
}
