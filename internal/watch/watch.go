// Package watch composes the stateless prayer engine into what a status bar
// needs: one snapshot of the current stage and the next boundary, and a
// scheduler that refreshes that snapshot on a fixed interval.
package watch

import (
	"time"

	"github.com/smokyabdulrahman/daystage/internal/hijri"
	"github.com/smokyabdulrahman/daystage/internal/method"
	"github.com/smokyabdulrahman/daystage/internal/prayer"
)

// Request is everything needed to compute any day's schedule for one place.
type Request struct {
	Coordinates prayer.Coordinates
	// Location supplies the UTC offset per day. Nil means UTC.
	Location *time.Location
	Method   method.Method
	School   method.School
}

func (r Request) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// ParamsFor builds engine parameters for the calendar day of day. The offset
// is the one in effect at local noon, so days with a daylight-saving switch
// use the offset that governs most of their daylight.
func (r Request) ParamsFor(day time.Time) prayer.Params {
	loc := r.location()
	y, m, d := day.Date()
	_, off := time.Date(y, m, d, 12, 0, 0, 0, loc).Zone()
	return prayer.Params{
		Date:        time.Date(y, m, d, 0, 0, 0, 0, loc),
		Coordinates: r.Coordinates,
		UTCOffset:   float64(off) / 3600,
		Method:      r.Method,
		School:      r.School,
	}
}

// Schedule computes the schedule for the calendar day of day.
func (r Request) Schedule(day time.Time) (prayer.Schedule, error) {
	return prayer.Calculate(r.ParamsFor(day))
}

// Status is one observation of the day's progress.
type Status struct {
	Now      time.Time       `json:"now"`
	Schedule prayer.Schedule `json:"-"`
	Current  prayer.Stage    `json:"current"`
	// Window is the current stage's span. Before Fajr it is the previous
	// night's Isha.
	Window prayer.Window   `json:"window"`
	Next   prayer.Boundary `json:"next"`
	// NextIsTomorrow is set when Next is the following day's Fajr.
	NextIsTomorrow bool       `json:"next_is_tomorrow"`
	Countdown      string     `json:"countdown"`
	Hijri          hijri.Date `json:"hijri"`
}

type scheduleFunc func(day time.Time) (prayer.Schedule, error)

// Snapshot resolves now against today's schedule in the request's location.
// After Isha the next boundary comes from tomorrow's schedule.
func Snapshot(req Request, now time.Time) (Status, error) {
	return snapshot(now, req.location(), req.Schedule)
}

func snapshot(now time.Time, loc *time.Location, schedule scheduleFunc) (Status, error) {
	local := now.In(loc)
	today, err := schedule(local)
	if err != nil {
		return Status{}, err
	}
	y, m, d := local.Date()

	var tomorrow *prayer.Schedule
	tomorrowFajr := func() (time.Time, error) {
		if tomorrow == nil {
			s, err := schedule(time.Date(y, m, d+1, 0, 0, 0, 0, loc))
			if err != nil {
				return time.Time{}, err
			}
			tomorrow = &s
		}
		return tomorrow.At(prayer.Fajr), nil
	}

	st := Status{
		Now:      local,
		Schedule: today,
		Current:  prayer.CurrentStage(today, now),
		Hijri:    hijri.FromGregorian(local),
	}

	if now.Before(today.At(prayer.Fajr)) {
		var yesterday prayer.Schedule
		yesterday, err = schedule(time.Date(y, m, d-1, 0, 0, 0, 0, loc))
		if err != nil {
			return Status{}, err
		}
		st.Window, err = yesterday.Window(prayer.Isha, func() (time.Time, error) {
			return today.At(prayer.Fajr), nil
		})
	} else {
		st.Window, err = today.Window(st.Current, tomorrowFajr)
	}
	if err != nil {
		return Status{}, err
	}

	next, ok := prayer.NextBoundary(today, now)
	if !ok {
		fajr, err := tomorrowFajr()
		if err != nil {
			return Status{}, err
		}
		next = prayer.Boundary{Stage: prayer.Fajr, Time: fajr}
		st.NextIsTomorrow = true
	}
	st.Next = next
	st.Countdown = prayer.FormatCountdown(next.Time, now)
	return st, nil
}
