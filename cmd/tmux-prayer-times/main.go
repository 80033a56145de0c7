package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/revert-companion/prayer-times/internal/cache"
	"github.com/revert-companion/prayer-times/internal/config"
	"github.com/revert-companion/prayer-times/internal/geo"
	"github.com/revert-companion/prayer-times/internal/prayer"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

// nowFunc and detectFunc are replaced in tests.
var (
	nowFunc    = time.Now
	detectFunc = geo.DetectLocation
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// options are the parsed command line.
type options struct {
	latitude, longitude float64
	timezone            string
	method, madhab      string
	format, timeFormat  string
	prayers             string
	cacheDir            string
	noDetect            bool
	showVersion         bool
	listMethods         bool
	set                 map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: map[string]bool{}}
	fs := flag.NewFlagSet("tmux-prayer-times", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Location flags
	fs.Float64Var(&o.latitude, "latitude", 0, "Latitude for prayer time calculation")
	fs.Float64Var(&o.longitude, "longitude", 0, "Longitude for prayer time calculation")
	fs.StringVar(&o.timezone, "timezone", "", "IANA time zone (default: local mean time of the longitude)")
	fs.BoolVar(&o.noDetect, "no-detect", false, "Never look up the location from the IP address")

	// Calculation flags
	fs.StringVar(&o.method, "method", "", "Calculation method (see --list-methods)")
	fs.StringVar(&o.madhab, "madhab", "", "Asr convention: shafi or hanafi")

	// Display flags
	fs.StringVar(&o.format, "format", prayer.FormatNameAndTime, "Display format: "+strings.Join(prayer.Modes(), ", ")+", or a custom Go template (e.g. '{{.Name}} in {{.Remaining}}'). Template fields: .Name, .ShortName, .Time, .Remaining, .Hours, .Minutes, .Date")
	fs.StringVar(&o.timeFormat, "time-format", "", "Time format: 12h or 24h")
	fs.StringVar(&o.prayers, "prayers", "", "Comma-separated list of prayers to track (default: Fajr,Sunrise,Dhuhr,Asr,Maghrib,Isha)")

	// Cache flags
	fs.StringVar(&o.cacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/prayer-times/)")

	// Info flags
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&o.listMethods, "list-methods", false, "Print supported calculation methods and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// run executes the status line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	if o.showVersion {
		fmt.Fprintf(stdout, "tmux-prayer-times %s\n", version)
		return 0
	}
	if o.listMethods {
		printMethods(stdout)
		return 0
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true, TimeFormat: time.Kitchen}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()

	out, err := status(ctx, o, log)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprint(stdout, out)
	return 0
}

// printMethods prints the table of supported calculation methods.
func printMethods(w io.Writer) {
	fmt.Fprintln(w, "Supported calculation methods:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-8s %s\n", "ID", "Name")
	fmt.Fprintf(w, "  %-8s %s\n", "──", "────")
	for _, m := range prayer.Methods() {
		fmt.Fprintf(w, "  %-8s %s\n", m, m.Name())
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Use --method <ID> to select a calculation method (default %s).\n", prayer.DefaultMethod)
}

// settings merges the config file and environment with the flags given.
func settings(o *options, log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("ignoring config file")
		cfg = &config.Config{}
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	overrides := []struct {
		flag, key, value string
	}{
		{"latitude", "latitude", fmt.Sprint(o.latitude)},
		{"longitude", "longitude", fmt.Sprint(o.longitude)},
		{"timezone", "timezone", o.timezone},
		{"method", "method", o.method},
		{"madhab", "madhab", o.madhab},
		{"time-format", "time_format", o.timeFormat},
		{"prayers", "prayers", o.prayers},
		{"cache-dir", "cache_dir", o.cacheDir},
	}
	for _, ov := range overrides {
		if !o.set[ov.flag] {
			continue
		}
		if err := cfg.Set(ov.key, ov.value); err != nil {
			return nil, fmt.Errorf("--%s: %w", ov.flag, err)
		}
	}
	return cfg, nil
}

// status returns the status-line text for the next prayer.
func status(ctx context.Context, o *options, log zerolog.Logger) (string, error) {
	cfg, err := settings(o, log)
	if err != nil {
		return "", err
	}

	r := geo.Resolver{
		Explicit: cfg.Location(),
		Detect:   detectFunc,
		NoDetect: o.noDetect,
		Logger:   log,
	}
	if r.Explicit != nil && (o.set["latitude"] || o.set["longitude"]) {
		r.Explicit.Source = geo.SourceFlags
	}
	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		// Non-fatal: detection just runs every time.
		log.Warn().Err(err).Msg("cache disabled")
	} else {
		r.Cache = c
	}
	loc := r.Resolve(ctx)
	if o.set["timezone"] {
		loc.Timezone = cfg.Timezone
	}

	opts := prayer.Options{Madhab: cfg.MadhabOrDefault()}
	if loc.Timezone != "" {
		if opts.Zone = loc.Zone(); opts.Zone == nil {
			return "", fmt.Errorf("invalid timezone %q", loc.Timezone)
		}
	}

	layout := "15:04"
	if cfg.TimeFormat == "12h" {
		layout = "3:04 PM"
	}

	now := nowFunc().In(opts.Clock(loc.Coordinates))
	next, err := prayer.Upcoming(now, loc.Coordinates, cfg.MethodOrDefault(), opts, cfg.PrayerNames(prayer.DefaultPrayerNames))
	if errors.Is(err, prayer.ErrNoUpcoming) {
		// Keep the status bar intact when no selected time occurs.
		return prayer.Undefined, nil
	}
	if err != nil {
		return "", err
	}
	return prayer.FormatOutput(next, now, o.format, layout), nil
}
