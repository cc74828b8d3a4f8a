package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/daystage/internal/server"
)

const defaultAddr = "127.0.0.1:8428"

var flagAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve schedules over a local JSON API",
		Long: "Serve /v1/schedule, /v1/status and /v1/hijri for widgets and status bars.\n" +
			"The resolved location and method are the defaults; query parameters override them.",
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&flagAddr, "addr", defaultAddr, "Listen address")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	if !FlagVerbose {
		gin.SetMode(gin.ReleaseMode)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(s.req, server.WithClock(now), server.WithLogger(log.Logger))

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", s.loc.label(), flagAddr)
	if err := srv.ListenAndServe(ctx, flagAddr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
