package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/revert-companion/prayer-times/internal/cache"
	"github.com/revert-companion/prayer-times/internal/config"
	"github.com/revert-companion/prayer-times/internal/geo"
	"github.com/revert-companion/prayer-times/internal/prayer"
	"github.com/revert-companion/prayer-times/internal/solar"
)

// nowFunc is the clock used by every command. Tests pin it.
var nowFunc = time.Now

// detectFunc looks up the location from the IP address. Tests replace it.
var detectFunc = geo.DetectLocation

// session is everything a schedule command needs once flags, config and
// location have been resolved.
type session struct {
	cfg     *config.Config
	loc     geo.Location
	method  prayer.Method
	opts    prayer.Options
	clock   *time.Location
	cache   *cache.Cache // nil when the cache directory is unusable
	timeFmt string       // Go layout
	now     time.Time
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:     cfg,
		method:  cfg.MethodOrDefault(),
		opts:    prayer.Options{Madhab: cfg.MadhabOrDefault()},
		timeFmt: goTimeFormat(cfg.TimeFormat),
	}

	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		logger.Warn().Err(err).Msg("cache disabled")
	} else {
		s.cache = c
	}

	r := geo.Resolver{
		Explicit: explicitLocation(cmd, cfg),
		Detect:   detectFunc,
		NoDetect: FlagNoDetect,
		Logger:   logger,
	}
	if s.cache != nil {
		r.Cache = s.cache
	}
	s.loc = r.Resolve(cmd.Context())
	logger.Debug().
		Str("source", string(s.loc.Source)).
		Str("location", s.loc.Label()).
		Msg("resolved location")

	// An explicit --timezone applies to detected and cached locations too.
	if flagWasSet(cmd.Flags(), cmd.Root().PersistentFlags(), "timezone") {
		s.loc.Timezone = cfg.Timezone
	}
	if s.loc.Timezone != "" {
		zone := s.loc.Zone()
		if zone == nil {
			return nil, fmt.Errorf("invalid timezone %q", s.loc.Timezone)
		}
		s.opts.Zone = zone
	}
	s.clock = s.opts.Clock(s.loc.Coordinates)
	s.now = nowFunc().In(s.clock)

	return s, nil
}

// explicitLocation returns the location given by flags or config, or nil
// when the resolver should fall back to the cache and detection.
func explicitLocation(cmd *cobra.Command, cfg *config.Config) *geo.Location {
	loc := cfg.Location()
	if loc == nil {
		return nil
	}
	flags, root := cmd.Flags(), cmd.Root().PersistentFlags()
	if flagWasSet(flags, root, "latitude") || flagWasSet(flags, root, "longitude") {
		loc.Source = geo.SourceFlags
		// The configured city no longer describes the coordinates.
		if !flagWasSet(flags, root, "city") {
			loc.City, loc.Country = "", ""
		}
	}
	return loc
}

func goTimeFormat(timeFormat string) string {
	if timeFormat == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// today is the current date on the session's clock.
func (s *session) today() solar.Date {
	return solar.DateOf(s.now)
}

// zoneName is the cache key zone: empty for longitude mean time.
func (s *session) zoneName() string {
	if s.opts.Zone == nil {
		return ""
	}
	return s.loc.Timezone
}

// clockLabel describes the clock the times are given on.
func (s *session) clockLabel() string {
	if s.opts.Zone != nil {
		return s.loc.Timezone
	}
	_, offset := s.now.Zone()
	sign := '+'
	if offset < 0 {
		sign, offset = '-', -offset
	}
	return fmt.Sprintf("Local mean time (UTC%c%02d:%02d)", sign, offset/3600, offset%3600/60)
}

// timetable returns the formatted times of date, from the cache when
// possible.
func (s *session) timetable(ctx context.Context, date solar.Date) prayer.PrayerTimes {
	var store cache.TimesStore
	if s.cache != nil {
		store = s.cache
	}
	key := cache.Key{
		Date:     date,
		Location: s.loc.Coordinates,
		Method:   s.method,
		Madhab:   s.opts.Madhab,
		Zone:     s.zoneName(),
	}
	times, hit := cache.Times(logger.WithContext(ctx), store, key, func() prayer.PrayerTimes {
		return prayer.Compute(date, s.loc.Coordinates, s.method, s.opts).Format()
	})
	logger.Debug().Str("date", date.String()).Bool("hit", hit).Msg("timetable")
	return times
}

// prayers returns the selected prayers of date as instants.
func (s *session) prayers(date solar.Date, names []string) ([]prayer.Prayer, error) {
	return prayer.Compute(date, s.loc.Coordinates, s.method, s.opts).Prayers(s.clock, names)
}

// upcoming returns the next selected prayer, or nil when there is none
// within a day.
func (s *session) upcoming(names []string) (*prayer.Prayer, error) {
	next, err := prayer.Upcoming(s.now, s.loc.Coordinates, s.method, s.opts, names)
	if errors.Is(err, prayer.ErrNoUpcoming) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// formatTime renders an "HH:MM" time of date in the session's layout.
func (s *session) formatTime(hhmm string, date solar.Date) string {
	if hhmm == prayer.Undefined || s.timeFmt == "15:04" {
		return hhmm
	}
	t, err := time.ParseInLocation("15:04", hhmm, s.clock)
	if err != nil {
		return hhmm
	}
	return time.Date(date.Year, date.Month, date.Day, t.Hour(), t.Minute(), 0, 0, s.clock).Format(s.timeFmt)
}
