package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/smokyabdulrahman/daystage/internal/prayer"
)

// Response represents the top-level Al Adhan API response.
type Response struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   Data   `json:"data"`
}

// Data holds the prayer timings, date info, and metadata.
type Data struct {
	Timings Timings  `json:"timings"`
	Date    DateInfo `json:"date"`
	Meta    Meta     `json:"meta"`
}

// Timings contains the daily times as HH:MM strings.
// The API may include a timezone suffix like " (BST)" which we strip during parsing.
type Timings struct {
	Fajr    string `json:"Fajr"`
	Sunrise string `json:"Sunrise"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

// Stage returns the raw time string for a stage.
func (t Timings) Stage(s prayer.Stage) string {
	switch s {
	case prayer.Fajr:
		return t.Fajr
	case prayer.Dhuhr:
		return t.Dhuhr
	case prayer.Asr:
		return t.Asr
	case prayer.Maghrib:
		return t.Maghrib
	case prayer.Isha:
		return t.Isha
	}
	return ""
}

// Instants parses the five stage times on date's calendar day in loc.
func (t Timings) Instants(date time.Time, loc *time.Location) ([prayer.StageCount]time.Time, error) {
	var out [prayer.StageCount]time.Time
	for i, s := range prayer.Stages {
		ts, err := parseTimeStr(t.Stage(s), date, loc)
		if err != nil {
			return out, fmt.Errorf("%s: %w", s, err)
		}
		out[i] = ts
	}
	return out, nil
}

// parseTimeStr parses "HH:MM" or "HH:MM (TZ)" onto the given day.
func parseTimeStr(raw string, date time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %q", raw)
	}

	var hour, min int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &min); err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return time.Time{}, fmt.Errorf("time out of range: %q", raw)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, loc), nil
}

// DateInfo contains date representations.
type DateInfo struct {
	Readable  string    `json:"readable"`
	Timestamp string    `json:"timestamp"`
	Hijri     HijriDate `json:"hijri"`
}

// HijriDate represents the Hijri (Islamic) date from the API response.
type HijriDate struct {
	Date        string           `json:"date"` // e.g. "10-08-1447"
	Day         string           `json:"day"`
	Month       HijriMonth       `json:"month"`
	Year        string           `json:"year"`
	Designation HijriDesignation `json:"designation"`
}

// HijriMonth represents the month in the Hijri calendar.
type HijriMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"` // English name, e.g. "Shaʿbān"
	Ar     string `json:"ar"` // Arabic name
}

// HijriDesignation contains the calendar designation labels.
type HijriDesignation struct {
	Abbreviated string `json:"abbreviated"` // "AH"
	Expanded    string `json:"expanded"`    // "Anno Hegirae"
}

// Format returns the Hijri date as "DD MonthName YYYY AH".
func (h HijriDate) Format() string {
	if h.Day == "" || h.Month.En == "" || h.Year == "" {
		return ""
	}
	abbr := h.Designation.Abbreviated
	if abbr == "" {
		abbr = "AH"
	}
	return h.Day + " " + h.Month.En + " " + h.Year + " " + abbr
}

// Meta contains request metadata returned by the API.
type Meta struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timezone  string     `json:"timezone"`
	Method    MethodInfo `json:"method"`
	School    string     `json:"school"`
}

// MethodInfo identifies the calculation method used.
type MethodInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
