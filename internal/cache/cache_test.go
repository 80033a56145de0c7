package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/revert-companion/prayer-times/internal/geo"
	"github.com/revert-companion/prayer-times/internal/prayer"
	"github.com/revert-companion/prayer-times/internal/solar"
)

func sampleKey() Key {
	return Key{
		Date:     solar.Date{Year: 2026, Month: time.February, Day: 28},
		Location: geo.Coordinates{Latitude: 51.5074, Longitude: -0.1278},
		Method:   prayer.ISNA,
		Madhab:   prayer.Shafi,
	}
}

func sampleTimes() prayer.PrayerTimes {
	return prayer.PrayerTimes{
		Fajr:    "05:17",
		Sunrise: "06:48",
		Dhuhr:   "12:13",
		Asr:     "15:02",
		Maghrib: "17:39",
		Isha:    "19:10",
	}
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return c
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "subdir", "cache")
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New(%q) error: %v", dir, err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Errorf("directory %q was not created", dir)
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
}

func TestNew_DefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	c, err := New("")
	if err != nil {
		t.Fatalf("New(\"\") error: %v", err)
	}
	if filepath.Base(c.Dir()) != "prayer-times" {
		t.Errorf("default dir = %q, want .../prayer-times", c.Dir())
	}
}

// ---------------------------------------------------------------------------
// Key
// ---------------------------------------------------------------------------

func TestKeyHash_Deterministic(t *testing.T) {
	k := sampleKey()
	if k.Hash() != sampleKey().Hash() {
		t.Error("same key should hash identically")
	}
	if len(k.Hash()) != 16 {
		t.Errorf("hash length = %d, want 16", len(k.Hash()))
	}
}

func TestKeyHash_VariesWithEveryField(t *testing.T) {
	base := sampleKey()
	variants := map[string]func(*Key){
		"date":   func(k *Key) { k.Date = k.Date.AddDays(1) },
		"lat":    func(k *Key) { k.Location.Latitude += 0.001 },
		"lon":    func(k *Key) { k.Location.Longitude -= 0.001 },
		"method": func(k *Key) { k.Method = prayer.MWL },
		"madhab": func(k *Key) { k.Madhab = prayer.Hanafi },
		"zone":   func(k *Key) { k.Zone = "Europe/London" },
	}

	for name, mutate := range variants {
		k := base
		mutate(&k)
		if k.Hash() == base.Hash() {
			t.Errorf("changing %s did not change the hash", name)
		}
	}
}

// ---------------------------------------------------------------------------
// Timetables
// ---------------------------------------------------------------------------

func TestTimes_SaveAndLoad(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	k := sampleKey()

	if _, err := c.LoadTimes(ctx, k); !errors.Is(err, ErrMiss) {
		t.Fatalf("empty cache err = %v, want ErrMiss", err)
	}

	if err := c.SaveTimes(ctx, k, sampleTimes()); err != nil {
		t.Fatalf("SaveTimes error: %v", err)
	}

	got, err := c.LoadTimes(ctx, k)
	if err != nil {
		t.Fatalf("LoadTimes error: %v", err)
	}
	if got != sampleTimes() {
		t.Errorf("LoadTimes = %+v, want %+v", got, sampleTimes())
	}
}

func TestTimes_DifferentKeyMisses(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	k := sampleKey()
	if err := c.SaveTimes(ctx, k, sampleTimes()); err != nil {
		t.Fatal(err)
	}

	other := k
	other.Method = prayer.Egypt
	if _, err := c.LoadTimes(ctx, other); !errors.Is(err, ErrMiss) {
		t.Errorf("other method err = %v, want ErrMiss", err)
	}
}

func TestTimes_MismatchedEntryIsMiss(t *testing.T) {
	c := newTestCache(t)
	k := sampleKey()

	// An entry for another date stored under this key's file name.
	entry := newEntry(k, sampleTimes())
	entry.Date = "1999-01-01"
	data, _ := json.Marshal(entry)
	if err := os.WriteFile(c.timesPath(k), data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := c.LoadTimes(context.Background(), k); !errors.Is(err, ErrMiss) {
		t.Errorf("err = %v, want ErrMiss", err)
	}
}

func TestTimes_OtherCoordinatesAreMiss(t *testing.T) {
	c := newTestCache(t)
	k := sampleKey()

	entry := newEntry(k, sampleTimes())
	entry.Longitude = 2.3522
	data, _ := json.Marshal(entry)
	if err := os.WriteFile(c.timesPath(k), data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := c.LoadTimes(context.Background(), k); !errors.Is(err, ErrMiss) {
		t.Errorf("err = %v, want ErrMiss", err)
	}
}

func TestTimes_CorruptFileIsMiss(t *testing.T) {
	c := newTestCache(t)
	k := sampleKey()
	if err := os.WriteFile(c.timesPath(k), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.LoadTimes(context.Background(), k); !errors.Is(err, ErrMiss) {
		t.Errorf("err = %v, want ErrMiss", err)
	}
}

func TestTimesHelper(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	k := sampleKey()

	calls := 0
	compute := func() prayer.PrayerTimes {
		calls++
		return sampleTimes()
	}

	if _, hit := Times(ctx, c, k, compute); hit {
		t.Error("first call should miss")
	}
	got, hit := Times(ctx, c, k, compute)
	if !hit {
		t.Error("second call should hit")
	}
	if got != sampleTimes() || calls != 1 {
		t.Errorf("got %+v after %d computations", got, calls)
	}

	// Without a store every call computes.
	Times(ctx, nil, k, compute)
	if calls != 2 {
		t.Errorf("nil store: calls = %d, want 2", calls)
	}
}

type brokenStore struct{}

func (brokenStore) LoadTimes(context.Context, Key) (prayer.PrayerTimes, error) {
	return prayer.PrayerTimes{}, errors.New("connection refused")
}

func (brokenStore) SaveTimes(context.Context, Key, prayer.PrayerTimes) error {
	return errors.New("read-only")
}

func TestTimesHelper_LogsBackendErrors(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).Level(zerolog.DebugLevel).WithContext(context.Background())

	got, hit := Times(ctx, brokenStore{}, sampleKey(), sampleTimes)
	if hit || got != sampleTimes() {
		t.Errorf("Times = %+v, %v", got, hit)
	}
	for _, want := range []string{"cache read failed", "connection refused", "cache write failed", "read-only"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log missing %q:\n%s", want, buf.String())
		}
	}
}

// ---------------------------------------------------------------------------
// Geo
// ---------------------------------------------------------------------------

func TestGeo_SaveAndLoad(t *testing.T) {
	c := newTestCache(t)

	if c.LoadGeo() != nil {
		t.Fatal("empty cache should have no location")
	}

	loc := &geo.Location{
		Coordinates: geo.Coordinates{Latitude: 51.5074, Longitude: -0.1278},
		City:        "London",
		Country:     "United Kingdom",
		Timezone:    "Europe/London",
		Source:      geo.SourceIP,
	}
	if err := c.SaveGeo(loc); err != nil {
		t.Fatalf("SaveGeo error: %v", err)
	}

	got := c.LoadGeo()
	if got == nil {
		t.Fatal("LoadGeo returned nil after save")
	}
	if *got != *loc {
		t.Errorf("LoadGeo = %+v, want %+v", *got, *loc)
	}
}

func TestGeo_Expired(t *testing.T) {
	c := newTestCache(t)
	start := time.Date(2026, 2, 28, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }

	if err := c.SaveGeo(&geo.Location{City: "London"}); err != nil {
		t.Fatal(err)
	}

	c.now = func() time.Time { return start.Add(23 * time.Hour) }
	if c.LoadGeo() == nil {
		t.Error("location within a day should load")
	}

	c.now = func() time.Time { return start.Add(25 * time.Hour) }
	if c.LoadGeo() != nil {
		t.Error("location older than a day should be ignored")
	}
}

func TestGeo_SatisfiesResolverStore(t *testing.T) {
	var _ geo.Store = newTestCache(t)
}

func TestClear(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	if err := c.SaveTimes(ctx, sampleKey(), sampleTimes()); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveGeo(&geo.Location{City: "X"}); err != nil {
		t.Fatal(err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if _, err := c.LoadTimes(ctx, sampleKey()); !errors.Is(err, ErrMiss) {
		t.Error("timetable survived Clear")
	}
	if c.LoadGeo() != nil {
		t.Error("location survived Clear")
	}
}
