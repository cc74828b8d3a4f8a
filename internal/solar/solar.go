// Package solar provides the low-precision solar position formulas used to
// derive the daily prayer boundaries.
//
// All angles are in degrees. Functions are pure and safe for concurrent use.
package solar

import (
	"errors"
	"fmt"
	"math"
)

// ErrUndefinedHourAngle is returned when the sun never reaches the requested
// altitude on the given day at the given latitude (polar day or polar night).
var ErrUndefinedHourAngle = errors.New("hour angle undefined")

// DomainError describes an hour-angle computation whose arccosine argument
// fell outside [-1, 1].
type DomainError struct {
	Latitude    float64
	Declination float64
	Angle       float64 // depression angle, or the Asr shadow altitude
	Cos         float64 // the offending arccosine argument
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%v: latitude %.4f, declination %.4f, angle %.4f (cos %.4f)",
		ErrUndefinedHourAngle, e.Latitude, e.Declination, e.Angle, e.Cos)
}

func (e *DomainError) Unwrap() error {
	return ErrUndefinedHourAngle
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// SunDeclination returns the sun's declination for a 1-based day of the year.
func SunDeclination(dayOfYear int) float64 {
	return -23.45 * math.Cos(toRadians(360.0/365.0*float64(dayOfYear+10)))
}

// EquationOfTime returns the equation of time in minutes for a 1-based day of the year.
func EquationOfTime(dayOfYear int) float64 {
	b := toRadians(360.0 / 365.0 * float64(dayOfYear-81))
	return 9.87*math.Sin(2*b) - 7.53*math.Cos(b) - 1.5*math.Sin(b)
}

// HourAngle returns the hour angle at which the sun sits depression degrees
// below the horizon.
func HourAngle(latitude, declination, depression float64) (float64, error) {
	lat := toRadians(latitude)
	dec := toRadians(declination)
	cos := (-math.Sin(toRadians(depression)) - math.Sin(lat)*math.Sin(dec)) /
		(math.Cos(lat) * math.Cos(dec))

	return acosDegrees(cos, &DomainError{
		Latitude:    latitude,
		Declination: declination,
		Angle:       depression,
	})
}

// AsrHourAngle returns the afternoon hour angle at which an object's shadow
// equals its own length plus its noon shadow.
func AsrHourAngle(latitude, declination float64) (float64, error) {
	return AsrHourAngleFactor(latitude, declination, 1)
}

// AsrHourAngleFactor is AsrHourAngle with a configurable shadow factor
// (1 for the standard rule, 2 for the Hanafi rule).
func AsrHourAngleFactor(latitude, declination, factor float64) (float64, error) {
	lat := toRadians(latitude)
	dec := toRadians(declination)
	a := math.Atan(1 / (factor + math.Tan(math.Abs(lat-dec))))
	cos := (math.Sin(a) - math.Sin(lat)*math.Sin(dec)) /
		(math.Cos(lat) * math.Cos(dec))

	return acosDegrees(cos, &DomainError{
		Latitude:    latitude,
		Declination: declination,
		Angle:       toDegrees(a),
	})
}

// acosDegrees returns acos(x) in degrees, or errTmpl with Cos filled in when x
// is outside the function's domain.
func acosDegrees(x float64, errTmpl *DomainError) (float64, error) {
	if math.IsNaN(x) || x < -1 || x > 1 {
		errTmpl.Cos = x
		return 0, errTmpl
	}
	return toDegrees(math.Acos(x)), nil
}
