package prayer

import (
	"fmt"
	"time"
)

// CurrentStage returns the stage whose window contains now: the latest
// boundary at or before now. Before the day's Fajr the previous night's Isha
// is still current.
func CurrentStage(s Schedule, now time.Time) Stage {
	for i := StageCount - 1; i >= 0; i-- {
		if !now.Before(s.Boundaries[i].Time) {
			return s.Boundaries[i].Stage
		}
	}
	return Isha
}

// NextBoundary returns the first boundary strictly after now in s.
// It reports false once Isha has begun; the caller then needs the following
// day's schedule for its Fajr.
func NextBoundary(s Schedule, now time.Time) (Boundary, bool) {
	for _, b := range s.Boundaries {
		if b.Time.After(now) {
			return b, true
		}
	}
	return Boundary{}, false
}

// Window is the half-open interval [Start, End) during which Stage is current.
type Window struct {
	Stage Stage     `json:"stage"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Window returns the window that starts at st's boundary. The Isha window
// ends at the next day's Fajr, which is only requested from tomorrowFajr when
// st is Isha.
func (s Schedule) Window(st Stage, tomorrowFajr func() (time.Time, error)) (Window, error) {
	if !st.Valid() {
		return Window{}, &InputError{Field: "stage", Value: int(st), Reason: "not a stage"}
	}
	w := Window{Stage: st, Start: s.At(st)}
	if st != Isha {
		w.End = s.At(st.Next())
		return w, nil
	}
	if tomorrowFajr == nil {
		return Window{}, fmt.Errorf("isha window needs the next day's fajr")
	}
	end, err := tomorrowFajr()
	if err != nil {
		return Window{}, fmt.Errorf("next day's fajr: %w", err)
	}
	w.End = end
	return w, nil
}
