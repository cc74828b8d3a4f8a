package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/daystage/internal/config"
	"github.com/smokyabdulrahman/daystage/internal/hijri"
	"github.com/smokyabdulrahman/daystage/internal/method"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or modify configuration",
		Long:  "Display current configuration, or use subcommands to modify it.\nWhen run without subcommands, shows the current configuration.",
		RunE:  runConfigShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: fmt.Sprintf("Set a configuration value. Valid keys: %s\n\nExamples:\n  daystage config set latitude 21.4225\n  daystage config set longitude 39.8262\n  daystage config set timezone Asia/Riyadh\n  daystage config set method Makkah\n  daystage config set time_format 12h",
			strings.Join(config.ValidKeys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a config value",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigGet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset config to defaults",
		Long:  "Delete the config file and restore all settings to defaults.",
		RunE:  runConfigReset,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print config file path",
		RunE:  runConfigPath,
	})

	return cmd
}

// runConfigShow displays the stored configuration. Environment overrides
// are listed separately so the file contents stay recognisable.
func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	path, err := config.Path()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "  Configuration (%s)\n\n", path)

	for _, key := range config.ValidKeys {
		val, _ := cfg.Get(key)
		display := val
		if display == "" {
			display = "(not set)"
		}
		// Add descriptive labels for method and school.
		if key == "method" && val != "" {
			display = formatMethodValue(val)
		}
		if key == "school" && val != "" {
			display = formatSchoolValue(val)
		}
		if loadedConfig != nil {
			if env, _ := loadedConfig.Get(key); env != val {
				display += fmt.Sprintf("  [%s=%s]", config.EnvName(key), env)
			}
		}
		fmt.Fprintf(out, "  %-14s %s\n", key, display)
	}
	return nil
}

// runConfigSet sets a config key to the given value.
func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	stored, _ := cfg.Get(key)
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, stored)
	return nil
}

// runConfigGet prints the effective value of one key, environment included.
func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg := loadedConfig
	if cfg == nil {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
	}
	val, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}

// runConfigReset deletes the config file.
func runConfigReset(cmd *cobra.Command, args []string) error {
	if err := config.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults.")
	return nil
}

// runConfigPath prints the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// formatMethodValue adds the method's full name to its identifier.
func formatMethodValue(val string) string {
	m, err := method.Parse(val)
	if err != nil {
		return val + " (unknown, using " + method.Default.String() + ")"
	}
	return fmt.Sprintf("%s (%s)", m, m.Description())
}

// formatSchoolValue adds the school name to the numeric value.
func formatSchoolValue(val string) string {
	switch val {
	case "0":
		return "0 (Standard)"
	case "1":
		return "1 (Hanafi)"
	default:
		return val
	}
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List all calculation methods",
		Long:  "Print the supported calculation methods with their Fajr angle and Isha rule.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Supported calculation methods:")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %-8s %-6s %-10s %s\n", "ID", "Fajr", "Isha", "Name")
			fmt.Fprintf(out, "  %-8s %-6s %-10s %s\n", "──", "────", "────", "────")
			for _, m := range method.All {
				p := m.Params()
				fmt.Fprintf(out, "  %-8s %-6s %-10s %s\n", m, fmt.Sprintf("%g°", p.FajrAngle), p.Isha, m.Description())
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Use --method <ID> to select a calculation method (default %s).\n", method.Default)
			fmt.Fprintln(out, "Use --school 1 for the Hanafi Asr shadow rule.")
			return nil
		},
	}
}

func newHijriCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hijri [YYYY-MM-DD]",
		Short: "Show the Hijri date",
		Long:  "Convert a Gregorian date (default: --date or today) to the tabular Hijri calendar.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHijri,
	}
}

type hijriJSON struct {
	Gregorian string     `json:"gregorian"`
	Hijri     hijri.Date `json:"hijri"`
	Formatted string     `json:"formatted"`
}

func runHijri(cmd *cobra.Command, args []string) error {
	raw := FlagDate
	if len(args) > 0 {
		raw = args[0]
	}

	// Only the calendar day matters, so the zone is irrelevant here.
	day, err := parseDay(raw, now())
	if err != nil {
		if len(args) > 0 {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
		}
		return err
	}

	h := hijri.FromGregorian(day)
	if FlagJSON {
		return writeJSON(cmd.OutOrStdout(), hijriJSON{
			Gregorian: day.Format(dateLayout),
			Hijri:     h,
			Formatted: h.Format(),
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", day.Format("Mon 02 Jan 2006"), h.Format())
	return nil
}
