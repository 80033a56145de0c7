package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/revert-companion/prayer-times/internal/config"
	"github.com/revert-companion/prayer-times/internal/display"
	"github.com/revert-companion/prayer-times/internal/prayer"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or modify configuration",
		Long:  "Display current configuration, or use subcommands to modify it.\nWhen run without subcommands, shows the current configuration.",
		RunE:  runConfigShow,
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: fmt.Sprintf("Set a configuration value. Valid keys: %s\n\nExamples:\n"+
			"  prayer-times config set latitude 51.5074\n"+
			"  prayer-times config set longitude -0.1278\n"+
			"  prayer-times config set timezone Europe/London\n"+
			"  prayer-times config set method ISNA\n"+
			"  prayer-times config set madhab hanafi\n"+
			"  prayer-times config set time_format 12h\n"+
			"  prayer-times config set notifications.before_minutes 10\n"+
			"  prayer-times config set prayers Fajr,Dhuhr,Asr,Maghrib,Isha",
			strings.Join(config.ValidKeys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	}
	// Negative coordinates such as -0.1278 are values, not shorthand flags.
	set.Flags().SetInterspersed(false)
	cmd.AddCommand(set)

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

// runConfigShow displays the current configuration, marking values that
// come from the environment.
func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	cfg := loadedConfig
	if cfg == nil {
		if cfg, err = config.Load(); err != nil {
			return err
		}
	}
	defaults := config.Defaults()

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "  Configuration (%s)\n\n", path)

	for _, key := range config.ValidKeys {
		val, _ := cfg.Get(key)
		shown := val
		switch {
		case val == "":
			if def, _ := defaults.Get(key); def != "" {
				shown = display.Dim(def + " (default)")
			} else {
				shown = display.Dim("(not set)")
			}
		case key == "method":
			shown = formatMethodValue(val)
		}
		if v, ok := os.LookupEnv(config.EnvName(key)); ok && v != "" {
			shown += display.Dim(" [" + config.EnvName(key) + "]")
		}
		fmt.Fprintf(w, "  %-29s %s\n", key, shown)
	}
	return nil
}

// runConfigSet sets a config key to the given value.
func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	// Load the file alone so environment overrides are not persisted.
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

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

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

// formatMethodValue adds the authority's name to a method.
func formatMethodValue(val string) string {
	m, err := prayer.ParseMethod(val)
	if err != nil {
		return val
	}
	return fmt.Sprintf("%s (%s)", m, m.Name())
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List all calculation methods",
		Long:  "Print the supported calculation methods with their Fajr and Isha parameters.",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if FlagJSON {
				type methodJSON struct {
					ID           string  `json:"id"`
					Name         string  `json:"name"`
					FajrAngle    float64 `json:"fajr_angle"`
					IshaAngle    float64 `json:"isha_angle,omitempty"`
					IshaInterval float64 `json:"isha_interval_minutes,omitempty"`
				}
				var out []methodJSON
				for _, m := range prayer.Methods() {
					p := m.Params()
					out = append(out, methodJSON{string(m), m.Name(), p.FajrAngle, p.IshaAngle, p.IshaInterval.Minutes()})
				}
				return writeJSON(w, out)
			}

			fmt.Fprintln(w, "Supported calculation methods:")
			fmt.Fprintln(w)
			tbl := display.NewTable("ID", "Name", "Fajr", "Isha").
				SetAlign(2, display.AlignRight).
				SetAlign(3, display.AlignRight)
			for _, m := range prayer.Methods() {
				p := m.Params()
				isha := fmt.Sprintf("%g°", p.IshaAngle)
				if p.IshaInterval > 0 {
					isha = fmt.Sprintf("%g min", p.IshaInterval.Minutes())
				}
				tbl.AddRow(string(m), m.Name(), fmt.Sprintf("%g°", p.FajrAngle), isha)
			}
			fmt.Fprint(w, tbl.Render())
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Use --method <ID> to select a calculation method (default %s).\n", prayer.DefaultMethod)
			return nil
		},
	}
}
