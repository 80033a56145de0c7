// Package cache memoises computed timetables and the detected location.
//
// Timetables are pure functions of their inputs, so entries never go
// stale; they are keyed by everything that affects the result. The
// detected location expires after a day.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/revert-companion/prayer-times/internal/geo"
	"github.com/revert-companion/prayer-times/internal/prayer"
	"github.com/revert-companion/prayer-times/internal/solar"
)

const (
	timesCacheFile = "times_%s.json" // keyed by hash
	geoCacheFile   = "geolocation.json"
	geoTTL         = 24 * time.Hour
)

// ErrMiss is returned when a timetable is not cached.
var ErrMiss = errors.New("cache miss")

// Key identifies one computed day.
type Key struct {
	Date     solar.Date
	Location geo.Coordinates
	Method   prayer.Method
	Madhab   prayer.Madhab
	Zone     string // empty for longitude mean time
}

// Hash builds a short deterministic digest of every field that affects
// the result, so different places, methods and zones get separate entries.
func (k Key) Hash() string {
	raw := fmt.Sprintf("%s|%.6f|%.6f|%s|%s|%s",
		k.Date, k.Location.Latitude, k.Location.Longitude, k.Method, k.Madhab, k.Zone)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}

// TimesStore is a timetable cache backend.
type TimesStore interface {
	LoadTimes(ctx context.Context, k Key) (prayer.PrayerTimes, error)
	SaveTimes(ctx context.Context, k Key, t prayer.PrayerTimes) error
}

// Times returns the cached timetable for k, computing and storing it on a
// miss. A nil store or a failing backend only costs the recomputation;
// backend errors are logged at debug level to the logger carried by ctx.
// The second result reports a cache hit.
func Times(ctx context.Context, s TimesStore, k Key, compute func() prayer.PrayerTimes) (prayer.PrayerTimes, bool) {
	if s == nil {
		return compute(), false
	}
	log := zerolog.Ctx(ctx)
	t, err := s.LoadTimes(ctx, k)
	if err == nil {
		return t, true
	}
	if !errors.Is(err, ErrMiss) {
		log.Debug().Err(err).Str("key", k.Hash()).Msg("cache read failed")
	}
	t = compute()
	if err := s.SaveTimes(ctx, k, t); err != nil {
		log.Debug().Err(err).Str("key", k.Hash()).Msg("cache write failed")
	}
	return t, false
}

// Entry is the stored form of a timetable along with the inputs it was
// computed from.
type Entry struct {
	Date      string             `json:"date"` // YYYY-MM-DD
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Method    string             `json:"method"`
	Madhab    string             `json:"madhab"`
	Zone      string             `json:"zone,omitempty"`
	Times     prayer.PrayerTimes `json:"times"`
}

func newEntry(k Key, t prayer.PrayerTimes) Entry {
	return Entry{
		Date:      k.Date.String(),
		Latitude:  k.Location.Latitude,
		Longitude: k.Location.Longitude,
		Method:    string(k.Method),
		Madhab:    string(k.Madhab),
		Zone:      k.Zone,
		Times:     t,
	}
}

// matches guards against hash collisions and hand-edited files.
func (e Entry) matches(k Key) bool {
	return e.Date == k.Date.String() &&
		e.Latitude == k.Location.Latitude && e.Longitude == k.Location.Longitude &&
		e.Method == string(k.Method) && e.Madhab == string(k.Madhab) && e.Zone == k.Zone
}

// GeoCacheEntry stores a cached geolocation result with a timestamp.
type GeoCacheEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

// Cache is the file-based backend.
type Cache struct {
	dir string
	now func() time.Time
}

// New creates a Cache rooted at the given directory.
// If dir is empty, it defaults to ~/.cache/prayer-times/.
func New(dir string) (*Cache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine cache directory: %w", err)
		}
		dir = filepath.Join(base, "prayer-times")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Cache{dir: dir, now: time.Now}, nil
}

// Dir returns the directory the cache writes to.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) timesPath(k Key) string {
	return filepath.Join(c.dir, fmt.Sprintf(timesCacheFile, k.Hash()))
}

// LoadTimes reads a cached timetable.
func (c *Cache) LoadTimes(_ context.Context, k Key) (prayer.PrayerTimes, error) {
	data, err := os.ReadFile(c.timesPath(k))
	if err != nil {
		return prayer.PrayerTimes{}, ErrMiss
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || !entry.matches(k) {
		return prayer.PrayerTimes{}, ErrMiss
	}
	return entry.Times, nil
}

// SaveTimes writes a timetable to the cache.
func (c *Cache) SaveTimes(_ context.Context, k Key, t prayer.PrayerTimes) error {
	data, err := json.Marshal(newEntry(k, t))
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := os.WriteFile(c.timesPath(k), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// LoadGeo reads a cached geolocation result.
// It returns nil if the cache is missing or older than a day.
func (c *Cache) LoadGeo() *geo.Location {
	data, err := os.ReadFile(filepath.Join(c.dir, geoCacheFile))
	if err != nil {
		return nil
	}

	var entry GeoCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	if c.now().Sub(entry.CachedAt) > geoTTL {
		return nil
	}
	return &entry.Location
}

// SaveGeo writes a geolocation result to the cache.
func (c *Cache) SaveGeo(loc *geo.Location) error {
	entry := GeoCacheEntry{
		Location: *loc,
		CachedAt: c.now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}

	if err := os.WriteFile(filepath.Join(c.dir, geoCacheFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}
	return nil
}

// Clear removes every cached file.
func (c *Cache) Clear() error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", m, err)
		}
	}
	return nil
}
