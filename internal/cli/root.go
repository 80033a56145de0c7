package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/revert-companion/prayer-times/internal/config"
)

// Global flags shared across all subcommands.
var (
	FlagCity       string
	FlagCountry    string
	FlagLatitude   float64
	FlagLongitude  float64
	FlagTimezone   string
	FlagMethod     string
	FlagMadhab     string
	FlagJSON       bool
	FlagCacheDir   string
	FlagTimeFormat string
	FlagLogLevel   string
	FlagNoDetect   bool
)

// loadedConfig holds the config loaded during PersistentPreRunE, with
// environment overrides applied. Available to all subcommand handlers.
var loadedConfig *config.Config

// logger writes diagnostics to stderr. It is replaced in PersistentPreRunE.
var logger = zerolog.Nop()

// NewRootCmd creates the root command for the prayer-times CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "prayer-times",
		Short: "Islamic prayer times CLI",
		Long: "Islamic prayer times computed offline from the sun's position, with\n" +
			"qibla direction, reminders and a prayer tracker.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}

			level := FlagLogLevel
			if !cmd.Flags().Changed("log-level") {
				if env, ok := os.LookupEnv("LOG_LEVEL"); ok && env != "" {
					level = env
				}
			}
			l, err := newLogger(cmd.ErrOrStderr(), level)
			if err != nil {
				return err
			}
			logger = l

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.ApplyEnv(nil); err != nil {
				return fmt.Errorf("invalid environment: %w", err)
			}
			loadedConfig = cfg
			return nil
		},
		// Default action: show today's prayer schedule.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(PrintVersion("{{.Version}}"))

	// Register global persistent flags.
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&FlagCity, "city", "", "City name shown with the times")
	pf.StringVar(&FlagCountry, "country", "", "Country name shown with the times")
	pf.Float64Var(&FlagLatitude, "latitude", 0, "Override latitude")
	pf.Float64Var(&FlagLongitude, "longitude", 0, "Override longitude")
	pf.StringVar(&FlagTimezone, "timezone", "", "IANA time zone for the times (default: local mean time of the longitude)")
	pf.StringVar(&FlagMethod, "method", "", "Calculation method: MWL, ISNA, Egypt, Makkah, Karachi, Tehran or Jafari")
	pf.StringVar(&FlagMadhab, "madhab", "", "Asr convention: shafi or hanafi")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&FlagCacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/prayer-times/)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&FlagLogLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	pf.BoolVar(&FlagNoDetect, "no-detect", false, "Never look up the location from the IP address")

	// Register subcommands.
	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newWeekCmd())
	rootCmd.AddCommand(newMonthCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newQiblaCmd())
	rootCmd.AddCommand(newTrackCmd())
	rootCmd.AddCommand(newRemindersCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMethodsCmd())

	return rootCmd
}

// PrintVersion prints the version string in the expected format.
func PrintVersion(version string) string {
	return fmt.Sprintf("prayer-times version %s\n", version)
}

// flagKeys maps persistent flags to the config keys they override.
var flagKeys = []struct {
	flag, key string
	value     func() string
}{
	{"city", "city", func() string { return FlagCity }},
	{"country", "country", func() string { return FlagCountry }},
	{"latitude", "latitude", func() string { return fmt.Sprint(FlagLatitude) }},
	{"longitude", "longitude", func() string { return fmt.Sprint(FlagLongitude) }},
	{"timezone", "timezone", func() string { return FlagTimezone }},
	{"method", "method", func() string { return FlagMethod }},
	{"madhab", "madhab", func() string { return FlagMadhab }},
	{"cache-dir", "cache_dir", func() string { return FlagCacheDir }},
	{"time-format", "time_format", func() string { return FlagTimeFormat }},
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > environment > config file > defaults.
// It uses cobra's Changed() to detect whether a flag was explicitly set,
// and validates flag values the same way `config set` does.
func effectiveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := loadedConfig
	if cfg == nil {
		empty := config.Config{}
		cfg = &empty
	}

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	for _, f := range flagKeys {
		if !flagWasSet(flags, root, f.flag) {
			continue
		}
		if err := cfg.Set(f.key, f.value()); err != nil {
			return nil, fmt.Errorf("--%s: %w", f.flag, err)
		}
	}

	// Apply defaults for values neither the flags nor the config set.
	defaults := config.Defaults()
	if cfg.Method == "" {
		cfg.Method = defaults.Method
	}
	if cfg.Madhab == "" {
		cfg.Madhab = defaults.Madhab
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
