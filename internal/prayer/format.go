package prayer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Format constants for display modes.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatFull               = "full"
)

// FormatModes lists the built-in display modes.
var FormatModes = []string{
	FormatTimeRemaining, FormatNextPrayerTime, FormatNameAndTime, FormatNameAndRemaining,
	FormatShortNameAndTime, FormatShortNameAndRemain, FormatFull,
}

// FormatCountdown renders the time left until target.
//
// At or past target it returns "00:00". From one hour up it returns "Xh Ym";
// below an hour it returns "M:SS". Components are truncated, never rounded.
func FormatCountdown(target, now time.Time) string {
	d := target.Sub(now)
	if d <= 0 {
		return "00:00"
	}
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Name      string // Full stage name, e.g. "Asr"
	ShortName string // Abbreviated name, e.g. "A"
	Time      string // Formatted boundary time, e.g. "15:02" or "3:02 PM"
	Remaining string // Countdown, e.g. "2h 15m" or "4:07"
	Hours     int    // Whole hours remaining
	Minutes   int    // Remaining minutes after hours
}

// FormatOutput formats the next boundary for a status line.
// timeFormat should be "15:04" for 24h or "3:04 PM" for 12h.
//
// If mode contains "{{", it is treated as a custom Go template string.
// Available template fields: .Name, .ShortName, .Time, .Remaining, .Hours, .Minutes
//
// Example: "{{.Name}} in {{.Remaining}}" -> "Asr in 2h 15m"
func FormatOutput(b Boundary, now time.Time, mode string, timeFormat string) string {
	d := b.Time.Sub(now)
	if d < 0 {
		d = 0
	}
	remaining := FormatCountdown(b.Time, now)
	timeStr := b.Time.Format(timeFormat)
	name := b.Stage.String()
	short := b.Stage.Short()

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, FormatData{
			Name:      name,
			ShortName: short,
			Time:      timeStr,
			Remaining: remaining,
			Hours:     int(d.Hours()),
			Minutes:   int(d.Minutes()) % 60,
		})
	}

	switch mode {
	case FormatTimeRemaining:
		return remaining
	case FormatNextPrayerTime:
		return timeStr
	case FormatNameAndTime:
		return fmt.Sprintf("%s %s", name, timeStr)
	case FormatNameAndRemaining:
		return fmt.Sprintf("%s %s", name, remaining)
	case FormatShortNameAndTime:
		return fmt.Sprintf("%s %s", short, timeStr)
	case FormatShortNameAndRemain:
		return fmt.Sprintf("%s %s", short, remaining)
	case FormatFull:
		return fmt.Sprintf("%s %s (%s)", name, timeStr, remaining)
	default:
		return fmt.Sprintf("%s %s", name, timeStr)
	}
}

// formatCustom executes a user-provided Go template string against the FormatData.
func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	return buf.String()
}
