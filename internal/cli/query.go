package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/daystage/internal/display"
	"github.com/smokyabdulrahman/daystage/internal/prayer"
)

var flagQueryDays string

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <stage>",
		Short: "Query a specific prayer time",
		Long: "Query when a stage begins on --date, or across multiple days with --days.\n\n" +
			"Valid stages: Fajr, Dhuhr, Asr, Maghrib, Isha",
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}

	cmd.Flags().StringVar(&flagQueryDays, "days", "", "Number of days to show (or 'week'/'month')")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	stage, err := prayer.ParseStage(args[0])
	if err != nil {
		return fmt.Errorf("unknown stage %q; valid stages: Fajr, Dhuhr, Asr, Maghrib, Isha", args[0])
	}

	// Determine number of days.
	days := 1
	if flagQueryDays != "" {
		if days, err = parseDays(flagQueryDays); err != nil {
			return fmt.Errorf("invalid --days: %w", err)
		}
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	// Single day: a failure is the command's error.
	if days == 1 {
		sched, err := s.schedule(s.day)
		if err != nil {
			return err
		}
		return printQuerySingle(cmd.OutOrStdout(), s, stage, sched)
	}

	daysList := computeDays(s, s.day, days)
	if FlagJSON {
		return printQueryJSON(cmd.OutOrStdout(), s, stage, daysList)
	}
	printQueryMulti(cmd.OutOrStdout(), s, stage, daysList)
	return nil
}

type queryJSONSingle struct {
	Stage string   `json:"stage"`
	Time  string   `json:"time"`
	Date  dateJSON `json:"date"`
}

func printQuerySingle(out io.Writer, s *session, stage prayer.Stage, sched prayer.Schedule) error {
	timeStr := sched.At(stage).Format(s.layout)

	if FlagJSON {
		return writeJSON(out, queryJSONSingle{
			Stage: strings.ToLower(stage.String()),
			Time:  timeStr,
			Date:  newDateJSON(s, s.day),
		})
	}

	fmt.Fprintf(out, "%s %s\n", stage, timeStr)
	return nil
}

func printQueryMulti(out io.Writer, s *session, stage prayer.Stage, daysList []dayData) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", display.Boldf("%s Times, %d Days", stage, len(daysList)))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", s.loc.label())
	fmt.Fprintln(out)

	tbl := display.NewTable([]string{"Date", stage.String()})
	today := s.now.Format(dateLayout)

	for i, dd := range daysList {
		timeStr := missingTime
		if dd.Err == nil {
			timeStr = dd.Schedule.At(stage).Format(s.layout)
		} else {
			tbl.SetRowStyle(i, display.Red)
		}
		tbl.AddRow([]string{dd.Date.Format("Mon 02 Jan"), timeStr})

		if dd.Date.Format(dateLayout) == today {
			tbl.SetHighlightRow(i)
		}
	}

	fmt.Fprint(out, tbl.Render())
	fmt.Fprintln(out)
}

type queryJSONMulti struct {
	Location locationJSON   `json:"location"`
	Stage    string         `json:"stage"`
	Days     []queryJSONDay `json:"days"`
}

type queryJSONDay struct {
	Date  dateJSON `json:"date"`
	Time  string   `json:"time,omitempty"`
	Error string   `json:"error,omitempty"`
}

func printQueryJSON(out io.Writer, s *session, stage prayer.Stage, daysList []dayData) error {
	res := queryJSONMulti{
		Location: newLocationJSON(s),
		Stage:    strings.ToLower(stage.String()),
		Days:     make([]queryJSONDay, 0, len(daysList)),
	}

	for _, dd := range daysList {
		day := queryJSONDay{Date: newDateJSON(s, dd.Date)}
		if dd.Err != nil {
			day.Error = failedSummary(dd.Err)
		} else {
			day.Time = dd.Schedule.At(stage).Format(s.layout)
		}
		res.Days = append(res.Days, day)
	}

	return writeJSON(out, res)
}
