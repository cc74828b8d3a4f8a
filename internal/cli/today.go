package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/daystage/internal/display"
	"github.com/smokyabdulrahman/daystage/internal/hijri"
	"github.com/smokyabdulrahman/daystage/internal/prayer"
	"github.com/smokyabdulrahman/daystage/internal/watch"
)

func runToday(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	// The current stage and countdown only make sense for today.
	var (
		sched  prayer.Schedule
		status *watch.Status
	)
	if s.isToday() {
		st, err := watch.Snapshot(s.req, s.now)
		if err != nil {
			return scheduleError(s.day, err)
		}
		sched, status = st.Schedule, &st
	} else {
		sched, err = s.schedule(s.day)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if FlagJSON {
		return printTodayJSON(out, s, sched, status)
	}
	printTodayRich(out, s, sched, status)
	return nil
}

// printTodayRich renders the colored terminal output for one day's schedule.
func printTodayRich(out io.Writer, s *session, sched prayer.Schedule, status *watch.Status) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", display.Bold("Prayer Times"))
	fmt.Fprintln(out)

	// Location and date info.
	fmt.Fprintf(out, "  %s\n", s.loc.label())
	fmt.Fprintf(out, "  %s\n", s.req.Location)
	fmt.Fprintf(out, "  %s\n", s.day.Format("Monday 02 January 2006"))
	if s.cfg.ShowHijriOrDefault() {
		fmt.Fprintf(out, "  %s\n", hijri.FromGregorian(s.day).Format())
	}
	fmt.Fprintf(out, "  %s\n", display.Gray(methodLabel(s)))
	fmt.Fprintln(out)

	// Print each stage.
	for _, b := range sched.Boundaries {
		name := padRight(b.Stage.String(), maxStageLen)
		line := fmt.Sprintf("  %s  %s", name, b.Time.Format(s.layout))

		switch {
		case status != nil && b.Stage == status.Current && !b.Time.After(s.now):
			// Current stage: dimmed.
			fmt.Fprintln(out, display.Dim(line+"  <- now"))
		case status != nil && !status.NextIsTomorrow && b.Stage == status.Next.Stage:
			// Next stage: accent color + countdown.
			suffix := fmt.Sprintf("  <- next in %s", status.Countdown)
			fmt.Fprintln(out, display.Accent(line)+display.Accent(suffix))
		default:
			fmt.Fprintf(out, "  %s  %s\n", display.Stage(b.Stage, name), b.Time.Format(s.layout))
		}
	}

	if status != nil && status.NextIsTomorrow {
		fmt.Fprintln(out)
		fmt.Fprintln(out, display.Accent(fmt.Sprintf("  Fajr tomorrow at %s, in %s",
			status.Next.Time.Format(s.layout), status.Countdown)))
	}

	fmt.Fprintln(out)
}

func methodLabel(s *session) string {
	return fmt.Sprintf("%s, %s Asr", s.req.Method.Description(), s.req.School)
}

// maxStageLen is the width of the longest stage name, "Maghrib".
const maxStageLen = 7

// padRight pads a string to the given width with spaces.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Location locationJSON      `json:"location"`
	Date     dateJSON          `json:"date"`
	Method   string            `json:"method"`
	School   string            `json:"school"`
	Timings  map[string]string `json:"timings"`
	Current  string            `json:"current,omitempty"`
	Next     *nextJSON         `json:"next,omitempty"`
}

type locationJSON struct {
	City      string  `json:"city,omitempty"`
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type dateJSON struct {
	Gregorian string `json:"gregorian"`
	Hijri     string `json:"hijri,omitempty"`
}

type nextJSON struct {
	Stage     string `json:"stage"`
	Time      string `json:"time"`
	Remaining string `json:"remaining"`
	Tomorrow  bool   `json:"tomorrow,omitempty"`
}

func newLocationJSON(s *session) locationJSON {
	return locationJSON{
		City:      s.loc.City,
		Timezone:  s.req.Location.String(),
		Latitude:  s.loc.Coordinates.Latitude,
		Longitude: s.loc.Coordinates.Longitude,
	}
}

func newDateJSON(s *session, day time.Time) dateJSON {
	d := dateJSON{Gregorian: day.Format(dateLayout)}
	if s.cfg.ShowHijriOrDefault() {
		d.Hijri = hijri.FromGregorian(day).Format()
	}
	return d
}

// timingsMap keys each boundary by its lower-case stage name.
func timingsMap(sched prayer.Schedule, layout string) map[string]string {
	timings := make(map[string]string, prayer.StageCount)
	for _, b := range sched.Boundaries {
		timings[strings.ToLower(b.Stage.String())] = b.Time.Format(layout)
	}
	return timings
}

// printTodayJSON renders structured JSON output.
func printTodayJSON(out io.Writer, s *session, sched prayer.Schedule, status *watch.Status) error {
	res := todayJSON{
		Location: newLocationJSON(s),
		Date:     newDateJSON(s, s.day),
		Method:   s.req.Method.String(),
		School:   s.req.School.String(),
		Timings:  timingsMap(sched, s.layout),
	}

	if status != nil {
		res.Current = strings.ToLower(status.Current.String())
		res.Next = &nextJSON{
			Stage:     strings.ToLower(status.Next.Stage.String()),
			Time:      status.Next.Time.Format(s.layout),
			Remaining: status.Countdown,
			Tomorrow:  status.NextIsTomorrow,
		}
	}

	return writeJSON(out, res)
}

func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
