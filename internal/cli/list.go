package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/daystage/internal/display"
	"github.com/smokyabdulrahman/daystage/internal/hijri"
	"github.com/smokyabdulrahman/daystage/internal/prayer"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [days]",
		Short: "Show prayer times for multiple days",
		Long:  "Display a grid of prayer times for N days starting at --date (default: 7 days from today).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, 7)
		},
	}
}

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show prayer times for the next 7 days",
		Long:  "Alias for 'list 7'. Display a grid of prayer times for 7 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 7)
		},
	}
}

func newMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Show prayer times for the next 30 days",
		Long:  "Alias for 'list 30'. Display a grid of prayer times for 30 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 30)
		},
	}
}

// maxDays caps list and query ranges.
const maxDays = 366

// dayData holds a single day's schedule for list/query output.
// Err is set when the day has no schedule at this latitude.
type dayData struct {
	Date     time.Time
	Schedule prayer.Schedule
	Err      error
}

// computeDays computes consecutive schedules starting at start. Days whose
// boundaries cannot be computed are kept with Err set so a polar stretch
// does not hide the rest of the range.
func computeDays(s *session, start time.Time, days int) []dayData {
	out := make([]dayData, 0, days)
	y, m, d := start.Date()
	for i := 0; i < days; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, start.Location())
		sched, err := s.schedule(day)
		if err != nil {
			log.Debug().Err(err).Str("date", day.Format(dateLayout)).Msg("no schedule")
		}
		out = append(out, dayData{Date: day, Schedule: sched, Err: err})
	}
	return out
}

// parseDays reads a day count: a positive integer, "week" or "month".
func parseDays(raw string) (int, error) {
	switch raw {
	case "week":
		return 7, nil
	case "month":
		return 30, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxDays {
		return 0, fmt.Errorf("invalid number of days: %q (must be 1-%d, 'week' or 'month')", raw, maxDays)
	}
	return n, nil
}

const missingTime = "--:--"

// runList is the handler for the list subcommand.
func runList(cmd *cobra.Command, args []string, defaultDays int) error {
	days := defaultDays
	if len(args) > 0 {
		n, err := parseDays(args[0])
		if err != nil {
			return err
		}
		days = n
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	daysList := computeDays(s, s.day, days)
	out := cmd.OutOrStdout()

	if FlagJSON {
		return printListJSON(out, s, daysList)
	}

	// Rich terminal output.
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", display.Boldf("Prayer Times, %d Days", days))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", s.loc.label())
	fmt.Fprintf(out, "  %s\n", display.Gray(methodLabel(s)))
	fmt.Fprintln(out)

	// Build table.
	headers := []string{"Date"}
	if s.cfg.ShowHijriOrDefault() {
		headers = append(headers, "Hijri")
	}
	for _, st := range prayer.Stages {
		headers = append(headers, st.String())
	}
	tbl := display.NewTable(headers)

	today := s.now.Format(dateLayout)
	failed := 0
	for i, dd := range daysList {
		row := []string{dd.Date.Format("Mon 02 Jan")}
		if s.cfg.ShowHijriOrDefault() {
			h := hijri.FromGregorian(dd.Date)
			row = append(row, fmt.Sprintf("%d %s", h.Day, h.Month))
		}
		for _, st := range prayer.Stages {
			if dd.Err != nil {
				row = append(row, missingTime)
				continue
			}
			row = append(row, dd.Schedule.At(st).Format(s.layout))
		}
		tbl.AddRow(row)

		if dd.Err != nil {
			failed++
			tbl.SetRowStyle(i, display.Red)
		}
		// Highlight today's row.
		if dd.Date.Format(dateLayout) == today {
			tbl.SetHighlightRow(i)
		}
	}

	fmt.Fprint(out, tbl.Render())
	if failed > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %s\n", display.Red(fmt.Sprintf(
			"%d of %d days have prayer times that cannot be computed at this latitude", failed, days)))
	}
	fmt.Fprintln(out)
	return nil
}

// listJSONOutput is the JSON structure for the list command.
type listJSONOutput struct {
	Location locationJSON  `json:"location"`
	Method   string        `json:"method"`
	School   string        `json:"school"`
	Days     []listJSONDay `json:"days"`
}

type listJSONDay struct {
	Date    dateJSON          `json:"date"`
	Timings map[string]string `json:"timings,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func printListJSON(out io.Writer, s *session, daysList []dayData) error {
	res := listJSONOutput{
		Location: newLocationJSON(s),
		Method:   s.req.Method.String(),
		School:   s.req.School.String(),
		Days:     make([]listJSONDay, 0, len(daysList)),
	}

	for _, dd := range daysList {
		day := listJSONDay{Date: newDateJSON(s, dd.Date)}
		if dd.Err != nil {
			day.Error = failedSummary(dd.Err)
		} else {
			day.Timings = timingsMap(dd.Schedule, s.layout)
		}
		res.Days = append(res.Days, day)
	}

	return writeJSON(out, res)
}

// failedSummary lists the stages that could not be computed, or the error
// text when there are none.
func failedSummary(err error) string {
	stages := prayer.FailedStages(err)
	if len(stages) == 0 {
		return err.Error()
	}
	names := make([]string, len(stages))
	for i, st := range stages {
		names[i] = strings.ToLower(st.String())
	}
	return "undefined: " + strings.Join(names, ", ")
}
