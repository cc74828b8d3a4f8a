package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/daystage/internal/prayer"
	"github.com/smokyabdulrahman/daystage/internal/watch"
)

var (
	flagInterval    time.Duration
	flagWatchFormat string
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the next prayer countdown continuously",
		Long: "Print one status line per interval until interrupted. The day's schedule is\n" +
			"computed once and recomputed after local midnight.",
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().DurationVar(&flagInterval, "interval", watch.DefaultInterval, "Tick interval, whole seconds from 1s to 59s")
	cmd.Flags().StringVar(&flagWatchFormat, "format", prayer.FormatFull, formatUsage)

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	var mu sync.Mutex

	w, err := watch.New(s.req,
		func(st watch.Status) {
			mu.Lock()
			defer mu.Unlock()
			if FlagJSON {
				if err := enc.Encode(st); err != nil {
					log.Error().Err(err).Msg("failed to encode status")
				}
				return
			}
			fmt.Fprintln(out, prayer.FormatOutput(st.Next, st.Now, flagWatchFormat, s.layout))
		},
		watch.WithInterval(flagInterval),
		watch.WithClock(now),
		watch.WithLogger(log.Logger),
		watch.OnError(func(err error) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintln(out, missingTime)
		}),
	)
	if err != nil {
		return err
	}

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
