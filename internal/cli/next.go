package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/daystage/internal/prayer"
	"github.com/smokyabdulrahman/daystage/internal/watch"
)

var flagFormat string

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long: "Display the next stage boundary with a countdown, for status bars such as tmux.\n" +
			"After Isha this is tomorrow's Fajr.",
		RunE: runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.FormatFull, formatUsage)

	return cmd
}

var formatUsage = "Display format: " + strings.Join(prayer.FormatModes, ", ") + ", or a custom Go template"

func runNext(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	st, err := watch.Snapshot(s.req, s.now)
	if err != nil {
		return scheduleError(s.day, err)
	}

	if FlagJSON {
		return writeJSON(cmd.OutOrStdout(), nextJSON{
			Stage:     strings.ToLower(st.Next.Stage.String()),
			Time:      st.Next.Time.Format(s.layout),
			Remaining: st.Countdown,
			Tomorrow:  st.NextIsTomorrow,
		})
	}

	// No trailing newline: status bars print the line as-is.
	fmt.Fprint(cmd.OutOrStdout(), prayer.FormatOutput(st.Next, s.now, flagFormat, s.layout))
	return nil
}
