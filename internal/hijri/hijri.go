// Package hijri converts Gregorian dates to the tabular (arithmetic) Islamic
// calendar. The result can differ by a day or two from sighting-based
// calendars.
package hijri

import (
	"fmt"
	"time"
)

// julianDayUnixEpoch is the Julian Day Number of 1970-01-01.
const julianDayUnixEpoch = 2440588

// Month is a Hijri month, 1 (Muharram) through 12 (Dhul Hijjah).
type Month int

const (
	Muharram Month = iota + 1
	Safar
	RabiAlAwwal
	RabiAlThani
	JumadaAlAwwal
	JumadaAlThani
	Rajab
	Shaban
	Ramadan
	Shawwal
	DhulQadah
	DhulHijjah
)

var monthNames = [...]string{
	"Muharram", "Safar", "Rabi al-Awwal", "Rabi al-Thani",
	"Jumada al-Awwal", "Jumada al-Thani", "Rajab", "Shaban",
	"Ramadan", "Shawwal", "Dhul Qadah", "Dhul Hijjah",
}

func (m Month) String() string {
	if m < Muharram || m > DhulHijjah {
		return fmt.Sprintf("Month(%d)", int(m))
	}
	return monthNames[m-1]
}

// Date is a day in the tabular Hijri calendar.
type Date struct {
	Day   int   `json:"day"`
	Month Month `json:"month"`
	Year  int   `json:"year"`
}

// Format renders the date as "1 Ramadan 1445 AH".
func (d Date) Format() string {
	return fmt.Sprintf("%d %s %d AH", d.Day, d.Month, d.Year)
}

func (d Date) String() string {
	return d.Format()
}

// before reports whether d falls strictly before o.
func (d Date) before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// FromGregorian converts the calendar day of t. Only its year, month and day
// are used; the clock time and zone are ignored.
func FromGregorian(t time.Time) Date {
	y, m, d := t.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
	return fromJulianDay(days + julianDayUnixEpoch)
}

func fromJulianDay(jd int64) Date {
	l := jd - 1948440 + 10632
	n := floorDiv(l-1, 10631)
	l = l - 10631*n + 354
	j := floorDiv(10985-l, 5316)*floorDiv(50*l, 17719) +
		floorDiv(l, 5670)*floorDiv(43*l, 15238)
	l = l - floorDiv(30-j, 15)*floorDiv(17719*j, 50) -
		floorDiv(j, 16)*floorDiv(15238*j, 43) + 29
	month := floorDiv(24*l, 709)
	day := l - floorDiv(709*month, 24)
	year := 30*n + j - 30
	return Date{Day: int(day), Month: Month(month), Year: int(year)}
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
