package prayer

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/smokyabdulrahman/daystage/internal/method"
	"github.com/smokyabdulrahman/daystage/internal/solar"
)

var makkah = Coordinates{Latitude: 21.4225, Longitude: 39.8262}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ---------------------------------------------------------------------------
// Coordinates
// ---------------------------------------------------------------------------

func TestCoordinatesValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Coordinates
		wantErr bool
	}{
		{"makkah", makkah, false},
		{"north pole", Coordinates{90, 0}, false},
		{"date line", Coordinates{0, -180}, false},
		{"latitude too high", Coordinates{90.1, 0}, true},
		{"latitude too low", Coordinates{-91, 0}, true},
		{"longitude too high", Coordinates{0, 180.5}, true},
		{"longitude too low", Coordinates{0, -181}, true},
		{"NaN latitude", Coordinates{math.NaN(), 0}, true},
		{"NaN longitude", Coordinates{0, math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("Validate() = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Calculate
// ---------------------------------------------------------------------------

func TestCalculate_MakkahExample(t *testing.T) {
	s, err := Calculate(Params{
		Date:        day(2024, 6, 1),
		Coordinates: makkah,
		UTCOffset:   3,
		Method:      method.Makkah,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dhuhr := s.At(Dhuhr)
	if dhuhr.Year() != 2024 || dhuhr.Month() != 6 || dhuhr.Day() != 1 {
		t.Errorf("Dhuhr on wrong day: %v", dhuhr)
	}
	mins := dhuhr.Hour()*60 + dhuhr.Minute()
	if mins < 11*60+55 || mins > 12*60+30 {
		t.Errorf("Dhuhr = %s, want within [11:55, 12:30]", dhuhr.Format("15:04"))
	}

	if got := s.At(Isha).Sub(s.At(Maghrib)); got != 90*time.Minute {
		t.Errorf("Isha - Maghrib = %v, want exactly 90m", got)
	}

	if _, off := dhuhr.Zone(); off != 3*3600 {
		t.Errorf("zone offset = %d, want %d", off, 3*3600)
	}
	if s.Method != method.Makkah {
		t.Errorf("Schedule.Method = %v, want Makkah", s.Method)
	}
}

func TestCalculate_MakkahExpectedClockTimes(t *testing.T) {
	s, err := Calculate(Params{
		Date:        day(2024, 6, 1),
		Coordinates: makkah,
		UTCOffset:   3,
		Method:      method.Makkah,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[Stage]string{
		Fajr:    "04:11",
		Dhuhr:   "12:18",
		Asr:     "15:35",
		Maghrib: "18:59",
		Isha:    "20:29",
	}
	for st, w := range want {
		if got := s.At(st).Format("15:04"); got != w {
			// Low-precision formulas: allow a minute either way.
			wt, _ := time.Parse("15:04", w)
			gt, _ := time.Parse("15:04", got)
			if d := gt.Sub(wt); d < -time.Minute || d > time.Minute {
				t.Errorf("%v = %s, want ~%s", st, got, w)
			}
		}
	}
}

func TestCalculate_StrictlyIncreasingMidLatitudes(t *testing.T) {
	places := []struct {
		name   string
		c      Coordinates
		offset float64
	}{
		{"Makkah", makkah, 3},
		{"New York", Coordinates{40.7128, -74.0060}, -5},
		{"Sydney", Coordinates{-33.8688, 151.2093}, 10},
		{"Jakarta", Coordinates{-6.2088, 106.8456}, 7},
		{"Tokyo", Coordinates{35.6762, 139.6503}, 9},
		{"Cape Town", Coordinates{-33.9249, 18.4241}, 2},
		{"Quito", Coordinates{-0.1807, -78.4678}, -5},
	}

	start := day(2024, 1, 1)
	for _, pl := range places {
		for _, m := range method.All {
			for i := 0; i < 366; i++ {
				date := start.AddDate(0, 0, i)
				s, err := Calculate(Params{Date: date, Coordinates: pl.c, UTCOffset: pl.offset, Method: m})
				if err != nil {
					t.Fatalf("%s/%v %s: unexpected error: %v", pl.name, m, date.Format("2006-01-02"), err)
				}
				for j := 1; j < StageCount; j++ {
					if !s.Boundaries[j].Time.After(s.Boundaries[j-1].Time) {
						t.Fatalf("%s/%v %s: %v not after %v", pl.name, m, date.Format("2006-01-02"),
							s.Boundaries[j].Stage, s.Boundaries[j-1].Stage)
					}
				}
				for j, st := range Stages {
					if s.Boundaries[j].Stage != st {
						t.Fatalf("Boundaries[%d].Stage = %v, want %v", j, s.Boundaries[j].Stage, st)
					}
				}
			}
		}
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	p := Params{
		Date:        day(2025, 3, 14),
		Coordinates: Coordinates{Latitude: 30.0444, Longitude: 31.2357},
		UTCOffset:   2,
		Method:      method.Egypt,
	}
	a, err := Calculate(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Calculate(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range a.Boundaries {
		if a.Boundaries[i].Time.UnixNano() != b.Boundaries[i].Time.UnixNano() {
			t.Errorf("%v differs between calls: %v vs %v", a.Boundaries[i].Stage, a.Boundaries[i].Time, b.Boundaries[i].Time)
		}
	}
}

func TestCalculate_UsesOnlyCalendarDay(t *testing.T) {
	base := Params{Coordinates: makkah, UTCOffset: 3, Method: method.MWL}

	base.Date = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a, err := Calculate(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base.Date = time.Date(2024, 6, 1, 23, 59, 0, 0, time.FixedZone("X", -7*3600))
	b, err := Calculate(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !a.At(Fajr).Equal(b.At(Fajr)) {
		t.Errorf("time-of-day in Date changed the result: %v vs %v", a.At(Fajr), b.At(Fajr))
	}
}

func TestCalculate_RollsIntoNextDay(t *testing.T) {
	// A +12 offset at longitude -179 puts solar noon near 36:00 local,
	// which belongs to the following calendar day.
	s, err := Calculate(Params{
		Date:        day(2024, 3, 20),
		Coordinates: Coordinates{Latitude: 0, Longitude: -179},
		UTCOffset:   12,
		Method:      method.MWL,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dhuhr := s.At(Dhuhr)
	if dhuhr.Day() != 21 {
		t.Errorf("Dhuhr = %v, want it rolled to the 21st", dhuhr)
	}
	if dhuhr.Hour() < 11 || dhuhr.Hour() > 12 {
		t.Errorf("Dhuhr hour = %d, want around noon", dhuhr.Hour())
	}
}

func TestCalculate_HanafiAsrIsLater(t *testing.T) {
	p := Params{Date: day(2024, 10, 1), Coordinates: Coordinates{24.8607, 67.0011}, UTCOffset: 5, Method: method.Karachi}
	std, err := Calculate(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.School = method.Hanafi
	hanafi, err := Calculate(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hanafi.At(Asr).After(std.At(Asr)) {
		t.Errorf("Hanafi Asr %v should be after standard Asr %v", hanafi.At(Asr), std.At(Asr))
	}
	if !hanafi.At(Dhuhr).Equal(std.At(Dhuhr)) {
		t.Error("school should only move Asr")
	}
}

func TestCalculate_UnknownMethodFallsBack(t *testing.T) {
	p := Params{Date: day(2024, 6, 1), Coordinates: makkah, UTCOffset: 3}
	p.Method = method.Method(99)
	got, err := Calculate(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Method = method.Default
	want, _ := Calculate(p)
	if got.Method != method.Default || !got.At(Isha).Equal(want.At(Isha)) {
		t.Errorf("invalid method did not fall back to %v", method.Default)
	}
}

func TestCalculate_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"latitude", Params{Coordinates: Coordinates{95, 0}}},
		{"longitude", Params{Coordinates: Coordinates{0, 200}}},
		{"offset too large", Params{Coordinates: makkah, UTCOffset: 15}},
		{"offset NaN", Params{Coordinates: makkah, UTCOffset: math.NaN()}},
		{"offset Inf", Params{Coordinates: makkah, UTCOffset: math.Inf(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.p.Date = day(2024, 6, 1)
			_, err := Calculate(tt.p)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Calculate() error = %v, want ErrInvalidInput", err)
			}
			var ie *InputError
			if !errors.As(err, &ie) {
				t.Fatalf("expected *InputError, got %T", err)
			}
		})
	}
}

func TestCalculate_PolarSummerFajrIshaUndefined(t *testing.T) {
	_, err := Calculate(Params{
		Date:        day(2024, 6, 21),
		Coordinates: Coordinates{Latitude: 80, Longitude: 15},
		UTCOffset:   1,
		Method:      method.MWL,
	})
	if err == nil {
		t.Fatal("expected a domain error at latitude 80 in midsummer, got nil")
	}
	if !errors.Is(err, ErrUndefinedTime) {
		t.Errorf("error %v does not wrap ErrUndefinedTime", err)
	}
	if !errors.Is(err, solar.ErrUndefinedHourAngle) {
		t.Errorf("error %v does not wrap solar.ErrUndefinedHourAngle", err)
	}

	failed := FailedStages(err)
	has := func(st Stage) bool {
		for _, f := range failed {
			if f == st {
				return true
			}
		}
		return false
	}
	if !has(Fajr) || !has(Isha) {
		t.Errorf("FailedStages = %v, want Fajr and Isha included", failed)
	}
	if has(Dhuhr) {
		t.Errorf("Dhuhr is always computable, got %v", failed)
	}

	var be *BoundaryError
	if !errors.As(err, &be) {
		t.Fatalf("expected a *BoundaryError, got %T", err)
	}
	if be.Stage != Fajr {
		t.Errorf("first failing boundary = %v, want Fajr", be.Stage)
	}
}

func TestCalculate_PolarWinterNoSunset(t *testing.T) {
	tests := []struct {
		m    method.Method
		want []Stage
	}{
		// The sun never rises, so there is no Maghrib; twilight angles still occur.
		{method.MWL, []Stage{Maghrib}},
		// A fixed Isha offset hangs off Maghrib and fails with it.
		{method.Makkah, []Stage{Maghrib, Isha}},
	}

	for _, tt := range tests {
		t.Run(tt.m.String(), func(t *testing.T) {
			_, err := Calculate(Params{
				Date:        day(2024, 12, 21),
				Coordinates: Coordinates{Latitude: 80, Longitude: 15},
				UTCOffset:   1,
				Method:      tt.m,
			})
			if !errors.Is(err, ErrUndefinedTime) {
				t.Fatalf("error = %v, want ErrUndefinedTime", err)
			}
			got := FailedStages(err)
			if len(got) != len(tt.want) {
				t.Fatalf("FailedStages = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("FailedStages = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestCheckOrder(t *testing.T) {
	date := day(2024, 6, 1)
	base := time.Date(2024, 6, 1, 4, 0, 0, 0, time.UTC)

	var b [StageCount]Boundary
	for i, st := range Stages {
		b[i] = Boundary{Stage: st, Time: base.Add(time.Duration(i) * 3 * time.Hour)}
	}
	if err := checkOrder(date, b); err != nil {
		t.Fatalf("ordered boundaries rejected: %v", err)
	}

	b[Asr].Time = b[Dhuhr].Time
	err := checkOrder(date, b)
	if !errors.Is(err, ErrScheduleOrder) {
		t.Fatalf("equal boundaries error = %v, want ErrScheduleOrder", err)
	}
	var oe *OrderError
	if !errors.As(err, &oe) || oe.Boundaries != b {
		t.Errorf("OrderError should carry the offending boundaries")
	}

	b[Asr].Time = b[Dhuhr].Time.Add(-time.Minute)
	if err := checkOrder(date, b); !errors.Is(err, ErrScheduleOrder) {
		t.Errorf("reversed boundaries error = %v, want ErrScheduleOrder", err)
	}
}

func TestHoursToTime(t *testing.T) {
	tests := []struct {
		name  string
		hours float64
		want  time.Time
	}{
		{"morning", 4.5, time.Date(2024, 6, 1, 4, 30, 0, 0, time.UTC)},
		{"minute rounds to nearest", 12.3083, time.Date(2024, 6, 1, 12, 18, 0, 0, time.UTC)},
		{"rounds into next hour", 12.9999, time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)},
		{"past midnight", 24.25, time.Date(2024, 6, 2, 0, 15, 0, 0, time.UTC)},
		{"before midnight", -0.5, time.Date(2024, 5, 31, 23, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hoursToTime(tt.hours, 2024, time.June, 1, time.UTC)
			if !got.Equal(tt.want) {
				t.Errorf("hoursToTime(%v) = %v, want %v", tt.hours, got, tt.want)
			}
		})
	}
}

func TestFixedZoneName(t *testing.T) {
	tests := []struct {
		off  float64
		want string
	}{
		{3, "UTC+03:00"},
		{-5, "UTC-05:00"},
		{5.5, "UTC+05:30"},
		{0, "UTC+00:00"},
	}
	for _, tt := range tests {
		name, _ := time.Date(2024, 1, 1, 0, 0, 0, 0, fixedZone(tt.off)).Zone()
		if name != tt.want {
			t.Errorf("fixedZone(%v) name = %q, want %q", tt.off, name, tt.want)
		}
	}
}
