package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/daystage/internal/api"
	"github.com/smokyabdulrahman/daystage/internal/cache"
	"github.com/smokyabdulrahman/daystage/internal/display"
	"github.com/smokyabdulrahman/daystage/internal/hijri"
	"github.com/smokyabdulrahman/daystage/internal/prayer"
)

var flagTolerance time.Duration

// newAPIClient is swapped out in tests.
var newAPIClient = api.NewClient

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare local times with the Al Adhan API",
		Long: "Fetch reference timings from the Al Adhan API for the same place, date, method and\n" +
			"school, and report how far each locally computed time drifts from them.\n" +
			"Exits non-zero when any stage drifts more than --tolerance.",
		Args: cobra.NoArgs,
		RunE: runVerify,
	}

	cmd.Flags().DurationVar(&flagTolerance, "tolerance", 2*time.Minute, "Largest acceptable drift per stage")

	return cmd
}

// reference is one day of API timings plus the API's Hijri date.
type reference struct {
	Timings  api.Timings
	Hijri    api.HijriDate
	Timezone string
}

// stageDrift compares one stage.
type stageDrift struct {
	Stage     string        `json:"stage"`
	Local     string        `json:"local"`
	Reference string        `json:"reference"`
	Drift     time.Duration `json:"-"`
	Seconds   float64       `json:"drift_seconds"`
	Within    bool          `json:"within_tolerance"`
}

type verifyJSON struct {
	Location locationJSON `json:"location"`
	Date     string       `json:"date"`
	Method   string       `json:"method"`
	Stages   []stageDrift `json:"stages"`
	Hijri    struct {
		Local     string `json:"local"`
		Reference string `json:"reference"`
	} `json:"hijri"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	sched, err := s.schedule(s.day)
	if err != nil {
		return err
	}

	ref, err := fetchReference(cmd.Context(), s, openCache(s.cfg))
	if err != nil {
		return err
	}

	// The API answers in the zone of the coordinates, which may differ from
	// the configured one.
	refZone := s.req.Location
	if ref.Timezone != "" {
		if tz, err := time.LoadLocation(ref.Timezone); err == nil {
			refZone = tz
		}
	}
	refTimes, err := ref.Timings.Instants(s.day, refZone)
	if err != nil {
		return fmt.Errorf("failed to parse reference timings: %w", err)
	}

	drifts := make([]stageDrift, 0, prayer.StageCount)
	failed := 0
	for i, b := range sched.Boundaries {
		refTimes[i] = alignReference(refTimes[i], b.Time)
		d := b.Time.Sub(refTimes[i])
		within := d.Abs() <= flagTolerance
		if !within {
			failed++
		}
		drifts = append(drifts, stageDrift{
			Stage:     b.Stage.String(),
			Local:     b.Time.Format(s.layout),
			Reference: refTimes[i].In(s.req.Location).Format(s.layout),
			Drift:     d,
			Seconds:   d.Seconds(),
			Within:    within,
		})
	}

	localHijri := hijri.FromGregorian(s.day).Format()
	out := cmd.OutOrStdout()

	if FlagJSON {
		res := verifyJSON{
			Location: newLocationJSON(s),
			Date:     s.day.Format(dateLayout),
			Method:   s.req.Method.String(),
			Stages:   drifts,
		}
		res.Hijri.Local = localHijri
		res.Hijri.Reference = ref.Hijri.Format()
		if err := writeJSON(out, res); err != nil {
			return err
		}
	} else {
		printVerify(out, s, drifts, localHijri, ref.Hijri.Format())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d stages drift more than %s from the reference", failed, prayer.StageCount, flagTolerance)
	}
	return nil
}

func printVerify(out io.Writer, s *session, drifts []stageDrift, localHijri, refHijri string) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", display.Bold("Reference Check (Al Adhan)"))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", s.loc.label())
	fmt.Fprintf(out, "  %s\n", s.day.Format("Monday 02 January 2006"))
	fmt.Fprintf(out, "  %s\n", display.Gray(methodLabel(s)))
	fmt.Fprintln(out)

	tbl := display.NewTable([]string{"Stage", "Local", "Reference", "Drift"})
	for i, d := range drifts {
		tbl.AddRow([]string{d.Stage, d.Local, d.Reference, formatDrift(d.Drift)})
		if !d.Within {
			tbl.SetRowStyle(i, display.Red)
		}
	}
	fmt.Fprint(out, tbl.Render())
	fmt.Fprintln(out)

	mark := display.Green("match")
	if refHijri != "" && hijriDigits(localHijri) != hijriDigits(refHijri) {
		mark = display.Yellow("differs")
	}
	fmt.Fprintf(out, "  Hijri  %s  (reference %s, %s)\n", localHijri, refHijri, mark)
	fmt.Fprintln(out)
}

// alignReference moves a reference time onto the day of the local boundary
// it is compared with. The API reports clock times only, so a boundary past
// local midnight comes back on the requested day.
func alignReference(ref, local time.Time) time.Time {
	switch d := local.Sub(ref); {
	case d > 12*time.Hour:
		return ref.AddDate(0, 0, 1)
	case d < -12*time.Hour:
		return ref.AddDate(0, 0, -1)
	}
	return ref
}

// formatDrift renders a signed whole-minute difference, e.g. "+1m" or "0m".
func formatDrift(d time.Duration) string {
	m := int(d.Round(time.Minute) / time.Minute)
	if m > 0 {
		return fmt.Sprintf("+%dm", m)
	}
	return fmt.Sprintf("%dm", m)
}

// hijriDigits keeps the day and year of a formatted Hijri date, without
// zero padding. Month names are transliterated differently by the API, so
// they are not compared.
func hijriDigits(s string) string {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return s
	}
	day, err1 := strconv.Atoi(fields[0])
	year, err2 := strconv.Atoi(fields[len(fields)-2])
	if err1 != nil || err2 != nil {
		return s
	}
	return fmt.Sprintf("%d %d", day, year)
}

// fetchReference returns reference timings from the cache, or from the API
// and then stores them.
func fetchReference(ctx context.Context, s *session, c *cache.Cache) (*reference, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	lat, lon := s.req.Coordinates.Latitude, s.req.Coordinates.Longitude
	methodID, school := s.req.Method.AladhanID(), int(s.req.School)

	// Try cache first.
	if c != nil {
		if entry := c.LoadReference(s.day, lat, lon, methodID, school); entry != nil {
			log.Debug().Str("date", entry.Date).Msg("reference from cache")
			return &reference{Timings: entry.Timings, Hijri: entry.Hijri, Timezone: entry.Meta.Timezone}, nil
		}
	}

	// Cache miss -- fetch from API.
	resp, err := newAPIClient().FetchByCoordinates(ctx, s.day, lat, lon, methodID, school)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reference timings: %w", err)
	}

	// Write to cache (best-effort).
	if c != nil {
		if err := c.SaveReference(s.day, lat, lon, methodID, school, resp); err != nil {
			log.Warn().Err(err).Msg("failed to cache reference timings")
		}
	}

	return &reference{Timings: resp.Data.Timings, Hijri: resp.Data.Date.Hijri, Timezone: resp.Data.Meta.Timezone}, nil
}
