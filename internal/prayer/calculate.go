// Package prayer computes the five daily stage boundaries from solar
// position, resolves which stage an instant falls into, and formats
// countdowns to the next boundary.
//
// Everything here is a pure function of its arguments; callers decide when
// to recompute (date rollover, location or method change).
package prayer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/smokyabdulrahman/daystage/internal/method"
	"github.com/smokyabdulrahman/daystage/internal/solar"
)

// SunriseDepression is the standard refraction plus solar-radius correction
// used for sunrise and sunset.
const SunriseDepression = 0.833

// maxUTCOffset bounds the accepted UTC offset in hours.
const maxUTCOffset = 14

// Coordinates is a position in signed degrees, east and north positive.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that both values are finite and within range.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return &InputError{Field: "latitude", Value: c.Latitude, Reason: "must be between -90 and 90"}
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return &InputError{Field: "longitude", Value: c.Longitude, Reason: "must be between -180 and 180"}
	}
	return nil
}

// Params are the inputs for one day's schedule.
type Params struct {
	// Date is the caller's local calendar day; only year, month and day are used.
	Date        time.Time
	Coordinates Coordinates
	// UTCOffset is the local offset in hours on Date, including daylight saving.
	UTCOffset float64
	Method    method.Method
	School    method.School
}

// Boundary is the instant a stage begins.
type Boundary struct {
	Stage Stage     `json:"stage"`
	Time  time.Time `json:"time"`
}

// Schedule holds one calendar day's five boundaries in stage order.
type Schedule struct {
	Date       time.Time
	Method     method.Method
	School     method.School
	Boundaries [StageCount]Boundary
}

// At returns the start of the given stage.
func (s Schedule) At(st Stage) time.Time {
	return s.Boundaries[st].Time
}

// Calculate computes the schedule for p.
//
// Boundaries that do not occur at this latitude on this day are reported as
// *BoundaryError values joined into the returned error; no partial schedule is
// returned. An unrecognised Method falls back to method.Default.
func Calculate(p Params) (Schedule, error) {
	if err := p.Coordinates.Validate(); err != nil {
		return Schedule{}, err
	}
	if math.IsNaN(p.UTCOffset) || math.IsInf(p.UTCOffset, 0) || math.Abs(p.UTCOffset) > maxUTCOffset {
		return Schedule{}, &InputError{Field: "utc offset", Value: p.UTCOffset, Reason: "must be within ±14 hours"}
	}
	m := p.Method
	if !m.Valid() {
		m = method.Default
	}
	mp := m.Params()

	year, month, day := p.Date.Date()
	loc := fixedZone(p.UTCOffset)
	lat := p.Coordinates.Latitude

	dayOfYear := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).YearDay()
	dec := solar.SunDeclination(dayOfYear)
	eqTime := solar.EquationOfTime(dayOfYear)

	noon := 12 + p.UTCOffset - p.Coordinates.Longitude/15 - eqTime/60
	at := func(hours float64) time.Time {
		return hoursToTime(hours, year, month, day, loc)
	}

	var (
		b    [StageCount]Boundary
		errs []error
	)
	for i, st := range Stages {
		b[i].Stage = st
	}
	fail := func(st Stage, err error) {
		errs = append(errs, &BoundaryError{Stage: st, Err: err})
	}

	if ha, err := solar.HourAngle(lat, dec, mp.FajrAngle); err != nil {
		fail(Fajr, err)
	} else {
		b[Fajr].Time = at(noon - ha/15)
	}

	b[Dhuhr].Time = at(noon)

	if ha, err := solar.AsrHourAngleFactor(lat, dec, p.School.ShadowFactor()); err != nil {
		fail(Asr, err)
	} else {
		b[Asr].Time = at(noon + ha/15)
	}

	sunsetHA, sunsetErr := solar.HourAngle(lat, dec, SunriseDepression)
	if sunsetErr != nil {
		fail(Maghrib, sunsetErr)
	} else {
		b[Maghrib].Time = at(noon + sunsetHA/15)
	}

	switch rule := mp.Isha.(type) {
	case method.IshaInterval:
		if sunsetErr != nil {
			fail(Isha, sunsetErr)
		} else {
			b[Isha].Time = b[Maghrib].Time.Add(time.Duration(rule))
		}
	case method.IshaAngle:
		if ha, err := solar.HourAngle(lat, dec, float64(rule)); err != nil {
			fail(Isha, err)
		} else {
			b[Isha].Time = at(noon + ha/15)
		}
	default:
		panic(fmt.Sprintf("prayer: unhandled Isha rule %T", rule))
	}

	if len(errs) > 0 {
		return Schedule{}, errors.Join(errs...)
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if err := checkOrder(date, b); err != nil {
		return Schedule{}, err
	}

	return Schedule{Date: date, Method: m, School: p.School, Boundaries: b}, nil
}

// checkOrder rejects boundaries that are not strictly increasing.
func checkOrder(date time.Time, b [StageCount]Boundary) error {
	for i := 1; i < StageCount; i++ {
		if !b[i].Time.After(b[i-1].Time) {
			return &OrderError{Date: date, Boundaries: b}
		}
	}
	return nil
}

// hoursToTime places a decimal hour value on the given day. Values below 0 or
// at/after 24 land on the neighbouring day.
func hoursToTime(hours float64, year int, month time.Month, day int, loc *time.Location) time.Time {
	h := math.Floor(hours)
	m := math.Round((hours - h) * 60)
	return time.Date(year, month, day, int(h), int(m), 0, 0, loc)
}

// fixedZone returns a zone for an offset in hours, named like "UTC+03:00".
func fixedZone(offset float64) *time.Location {
	secs := int(math.Round(offset * 3600))
	sign := '+'
	abs := secs
	if secs < 0 {
		sign = '-'
		abs = -secs
	}
	name := fmt.Sprintf("UTC%c%02d:%02d", sign, abs/3600, abs%3600/60)
	return time.FixedZone(name, secs)
}
