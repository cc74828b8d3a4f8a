package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/daystage/internal/config"
	"github.com/smokyabdulrahman/daystage/internal/display"
)

// Global flags shared across all subcommands.
var (
	FlagCity       string
	FlagLatitude   float64
	FlagLongitude  float64
	FlagTimezone   string
	FlagMethod     string
	FlagSchool     string
	FlagJSON       bool
	FlagCacheDir   string
	FlagTimeFormat string
	FlagDate       string
	FlagAutoLocate bool
	FlagVerbose    bool
)

// loadedConfig holds the config loaded during PersistentPreRunE, with
// environment overrides applied. Available to all subcommand handlers.
var loadedConfig *config.Config

// now is the clock used for "today" and countdowns. Tests replace it.
var now = time.Now

// NewRootCmd creates the root command for the daystage CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "daystage",
		Short: "Islamic prayer times and day stages",
		Long: "Computes the five daily prayer times locally from solar position, tells you which\n" +
			"stage of the day you are in and how long until the next one begins.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(cmd.ErrOrStderr(), FlagVerbose)

			if err := config.LoadDotEnv(".env"); err != nil {
				log.Warn().Err(err).Msg("ignoring .env")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
				return fmt.Errorf("invalid environment override: %w", err)
			}
			loadedConfig = cfg

			if FlagJSON {
				display.SetEnabled(false)
			}
			return nil
		},
		// Default action: show today's schedule.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Register global persistent flags.
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&FlagCity, "city", "", "City label shown with the schedule")
	pf.Float64Var(&FlagLatitude, "latitude", 0, "Override latitude (-90 to 90)")
	pf.Float64Var(&FlagLongitude, "longitude", 0, "Override longitude (-180 to 180)")
	pf.StringVar(&FlagTimezone, "timezone", "", "IANA timezone, e.g. Asia/Riyadh (default: system zone)")
	pf.StringVar(&FlagMethod, "method", "", "Calculation method: MWL, ISNA, Egypt, Makkah, Karachi, Tehran")
	pf.StringVar(&FlagSchool, "school", "", "Asr school (0=Standard, 1=Hanafi)")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&FlagCacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/daystage/)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&FlagDate, "date", "", "Calendar day as YYYY-MM-DD (default: today)")
	pf.BoolVar(&FlagAutoLocate, "auto-locate", false, "Detect the location from your IP when none is configured")
	pf.BoolVarP(&FlagVerbose, "verbose", "v", false, "Log debug output to stderr")

	// Register subcommands.
	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newWeekCmd())
	rootCmd.AddCommand(newMonthCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newHijriCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMethodsCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

// PrintVersion prints the version string in the expected format.
func PrintVersion(version string) string {
	return fmt.Sprintf("daystage %s\n", version)
}

// setupLogger points the global logger at w in console format.
func setupLogger(w io.Writer, verbose bool) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !display.Enabled(),
		TimeFormat: time.Kitchen,
	}).Level(level).With().Timestamp().Logger()
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > environment > config file > defaults.
// It uses cobra's Changed() to detect whether a flag was explicitly set.
func effectiveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{}
	if loadedConfig != nil {
		merged := *loadedConfig
		cfg = &merged
	}

	defaults := config.Defaults()

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	// Flags go through the same validation as `config set`.
	for _, f := range []struct {
		flag, key string
		value     func() string
	}{
		{"city", "city", func() string { return FlagCity }},
		{"latitude", "latitude", func() string { return strconv.FormatFloat(FlagLatitude, 'f', -1, 64) }},
		{"longitude", "longitude", func() string { return strconv.FormatFloat(FlagLongitude, 'f', -1, 64) }},
		{"timezone", "timezone", func() string { return FlagTimezone }},
		{"school", "school", func() string { return FlagSchool }},
		{"time-format", "time_format", func() string { return FlagTimeFormat }},
		{"cache-dir", "cache_dir", func() string { return FlagCacheDir }},
	} {
		if !flagWasSet(flags, root, f.flag) {
			continue
		}
		if err := cfg.Set(f.key, f.value()); err != nil {
			return nil, fmt.Errorf("--%s: %w", f.flag, err)
		}
	}

	// An unknown method is kept so it can fall back with a warning.
	if flagWasSet(flags, root, "method") {
		cfg.Method = FlagMethod
	}

	if cfg.School == nil {
		cfg.School = defaults.School
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = defaults.TimeFormat
	}

	return cfg, nil
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

// goTimeLayout maps the time_format setting onto a Go layout.
func goTimeLayout(format string) string {
	if format == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}
