package prayer

import (
	"errors"
	"testing"
	"time"
)

// sampleSchedule builds a schedule with fixed boundaries on 2026-02-28 UTC.
func sampleSchedule(t *testing.T) Schedule {
	t.Helper()
	at := func(h, m int) time.Time {
		return time.Date(2026, 2, 28, h, m, 0, 0, time.UTC)
	}
	return Schedule{
		Date: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		Boundaries: [StageCount]Boundary{
			{Fajr, at(5, 17)},
			{Dhuhr, at(12, 13)},
			{Asr, at(15, 2)},
			{Maghrib, at(17, 39)},
			{Isha, at(19, 10)},
		},
	}
}

func clock(h, m, s int) time.Time {
	return time.Date(2026, 2, 28, h, m, s, 0, time.UTC)
}

// ---------------------------------------------------------------------------
// CurrentStage
// ---------------------------------------------------------------------------

func TestCurrentStage(t *testing.T) {
	s := sampleSchedule(t)

	tests := []struct {
		name string
		now  time.Time
		want Stage
	}{
		{"after midnight before fajr", clock(0, 30, 0), Isha},
		{"one second before fajr", clock(5, 16, 59), Isha},
		{"exactly fajr", clock(5, 17, 0), Fajr},
		{"morning", clock(9, 0, 0), Fajr},
		{"exactly dhuhr", clock(12, 13, 0), Dhuhr},
		{"afternoon", clock(13, 0, 0), Dhuhr},
		{"exactly asr", clock(15, 2, 0), Asr},
		{"exactly maghrib", clock(17, 39, 0), Maghrib},
		{"exactly isha", clock(19, 10, 0), Isha},
		{"late night", clock(23, 59, 59), Isha},
		{"next day", clock(0, 0, 0).AddDate(0, 0, 1).Add(3 * time.Hour), Isha},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentStage(s, tt.now); got != tt.want {
				t.Errorf("CurrentStage(%s) = %v, want %v", tt.now.Format("15:04:05"), got, tt.want)
			}
		})
	}
}

func TestCurrentStage_OtherZone(t *testing.T) {
	s := sampleSchedule(t)
	// 13:00 UTC observed from UTC+3 is still the Dhuhr window.
	now := clock(13, 0, 0).In(time.FixedZone("AST", 3*3600))
	if got := CurrentStage(s, now); got != Dhuhr {
		t.Errorf("CurrentStage = %v, want Dhuhr", got)
	}
}

// ---------------------------------------------------------------------------
// NextBoundary
// ---------------------------------------------------------------------------

func TestNextBoundary(t *testing.T) {
	s := sampleSchedule(t)

	tests := []struct {
		name   string
		now    time.Time
		want   Stage
		wantOK bool
	}{
		{"before fajr", clock(3, 0, 0), Fajr, true},
		{"middle of day", clock(13, 0, 0), Asr, true},
		{"exactly dhuhr moves on", clock(12, 13, 0), Asr, true},
		{"just before isha", clock(19, 9, 59), Isha, true},
		{"exactly isha", clock(19, 10, 0), 0, false},
		{"after isha", clock(22, 0, 0), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextBoundary(s, tt.now)
			if ok != tt.wantOK {
				t.Fatalf("NextBoundary ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Stage != tt.want {
				t.Errorf("NextBoundary = %v, want %v", got.Stage, tt.want)
			}
			if ok && !got.Time.After(tt.now) {
				t.Errorf("NextBoundary time %v is not after now %v", got.Time, tt.now)
			}
		})
	}
}

func TestNextBoundary_AgreesWithCurrentStage(t *testing.T) {
	s := sampleSchedule(t)
	for m := 0; m < 24*60; m += 7 {
		now := clock(0, 0, 0).Add(time.Duration(m) * time.Minute)
		cur := CurrentStage(s, now)
		next, ok := NextBoundary(s, now)
		if !ok {
			if cur != Isha {
				t.Fatalf("%s: no next boundary but current is %v", now.Format("15:04"), cur)
			}
			continue
		}
		if now.Before(s.At(Fajr)) {
			if next.Stage != Fajr {
				t.Fatalf("%s: next = %v, want Fajr", now.Format("15:04"), next.Stage)
			}
			continue
		}
		if cur.Next() != next.Stage {
			t.Fatalf("%s: current %v, next %v", now.Format("15:04"), cur, next.Stage)
		}
	}
}

// ---------------------------------------------------------------------------
// Window
// ---------------------------------------------------------------------------

func TestWindow(t *testing.T) {
	s := sampleSchedule(t)
	called := false
	tomorrow := func() (time.Time, error) {
		called = true
		return time.Date(2026, 3, 1, 5, 16, 0, 0, time.UTC), nil
	}

	w, err := s.Window(Asr, tomorrow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Error("tomorrow's Fajr should only be requested for Isha")
	}
	if !w.Start.Equal(s.At(Asr)) || !w.End.Equal(s.At(Maghrib)) {
		t.Errorf("Asr window = %v..%v", w.Start, w.End)
	}
	if !w.Contains(s.At(Asr)) || w.Contains(s.At(Maghrib)) {
		t.Error("window must be closed at the start and open at the end")
	}

	w, err = s.Window(Isha, tomorrow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("Isha window should request tomorrow's Fajr")
	}
	if w.End.Day() != 1 || w.End.Hour() != 5 {
		t.Errorf("Isha window end = %v, want next day's Fajr", w.End)
	}
	if !w.Contains(clock(23, 0, 0)) {
		t.Error("Isha window should contain 23:00")
	}
}

func TestWindow_Errors(t *testing.T) {
	s := sampleSchedule(t)

	if _, err := s.Window(Isha, nil); err == nil {
		t.Error("Isha window without a tomorrow lookup should fail")
	}

	boom := errors.New("boom")
	_, err := s.Window(Isha, func() (time.Time, error) { return time.Time{}, boom })
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped boom", err)
	}

	if _, err := s.Window(Stage(7), nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("invalid stage error = %v, want ErrInvalidInput", err)
	}
}
