// Package config provides persistent preferences for the prayer-times
// tools.
//
// Preferences are stored as JSON at ~/.config/prayer-times/config.json
// (XDG-compliant) and may be overridden from the environment. The merge
// priority is: CLI flags > environment > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/revert-companion/prayer-times/internal/geo"
	"github.com/revert-companion/prayer-times/internal/prayer"
)

const (
	configDirName  = "prayer-times"
	configFileName = "config.json"
)

// DefaultReminderMinutes is how long before a prayer a reminder fires
// when the user has not chosen otherwise.
const DefaultReminderMinutes = 15

// ErrUnknownKey is returned by Set and Get for keys outside ValidKeys.
var ErrUnknownKey = errors.New("unknown config key")

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"city", "country",
	"latitude", "longitude",
	"timezone",
	"method", "madhab",
	"time_format",
	"prayers",
	"cache_dir",
	"notifications.enabled",
	"notifications.before_minutes",
	"notifications.sound",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults or auto-detect).
type Config struct {
	City       string  `json:"city,omitempty"`
	Country    string  `json:"country,omitempty"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
	Timezone   string  `json:"timezone,omitempty"` // IANA name; empty means longitude mean time
	Method     string  `json:"method,omitempty"`
	Madhab     string  `json:"madhab,omitempty"`
	TimeFormat string  `json:"time_format,omitempty"` // "12h" or "24h"
	Prayers    string  `json:"prayers,omitempty"`     // comma-separated list
	CacheDir   string  `json:"cache_dir,omitempty"`

	Notifications Notifications `json:"notifications,omitzero"`
}

// Notifications are the reminder preferences. Pointers distinguish
// "not set" from false and 0.
type Notifications struct {
	Enabled       *bool `json:"enabled,omitempty"`
	BeforeMinutes *int  `json:"before_minutes,omitempty"`
	Sound         *bool `json:"sound,omitempty"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	enabled, sound := true, true
	before := DefaultReminderMinutes
	return Config{
		Method:     string(prayer.DefaultMethod),
		Madhab:     string(prayer.Shafi),
		TimeFormat: "24h",
		Notifications: Notifications{
			Enabled:       &enabled,
			BeforeMinutes: &before,
			Sound:         &sound,
		},
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// A missing file yields an empty Config; invalid JSON is an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "city":
		c.City = value
	case "country":
		c.Country = value
	case "latitude":
		v, err := parseRange(value, -90, 90)
		if err != nil {
			return fmt.Errorf("invalid latitude %q: %w", value, err)
		}
		c.Latitude = v
	case "longitude":
		v, err := parseRange(value, -180, 180)
		if err != nil {
			return fmt.Errorf("invalid longitude %q: %w", value, err)
		}
		c.Longitude = v
	case "timezone":
		if value != "" {
			if _, err := time.LoadLocation(value); err != nil {
				return fmt.Errorf("invalid timezone %q: %w", value, err)
			}
		}
		c.Timezone = value
	case "method":
		m, err := prayer.ParseMethod(value)
		if err != nil {
			return err
		}
		c.Method = string(m)
	case "madhab":
		m, err := prayer.ParseMadhab(value)
		if err != nil {
			return err
		}
		c.Madhab = string(m)
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "prayers":
		for _, n := range strings.Split(value, ",") {
			n = strings.TrimSpace(n)
			if _, ok := prayer.ShortNames[n]; !ok {
				return fmt.Errorf("invalid prayer name %q in prayers list", n)
			}
		}
		c.Prayers = value
	case "cache_dir":
		c.CacheDir = value
	case "notifications.enabled":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid notifications.enabled %q: must be true or false", value)
		}
		c.Notifications.Enabled = &v
	case "notifications.before_minutes":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 || v > 120 {
			return fmt.Errorf("invalid notifications.before_minutes %q: must be an integer between 0 and 120", value)
		}
		c.Notifications.BeforeMinutes = &v
	case "notifications.sound":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid notifications.sound %q: must be true or false", value)
		}
		c.Notifications.Sound = &v
	default:
		return fmt.Errorf("%w %q; valid keys: %s", ErrUnknownKey, key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "city":
		return c.City, nil
	case "country":
		return c.Country, nil
	case "latitude":
		return formatCoord(c.Latitude), nil
	case "longitude":
		return formatCoord(c.Longitude), nil
	case "timezone":
		return c.Timezone, nil
	case "method":
		return c.Method, nil
	case "madhab":
		return c.Madhab, nil
	case "time_format":
		return c.TimeFormat, nil
	case "prayers":
		return c.Prayers, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "notifications.enabled":
		return formatBool(c.Notifications.Enabled), nil
	case "notifications.before_minutes":
		if c.Notifications.BeforeMinutes == nil {
			return "", nil
		}
		return strconv.Itoa(*c.Notifications.BeforeMinutes), nil
	case "notifications.sound":
		return formatBool(c.Notifications.Sound), nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
}

func parseRange(value string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.New("must be a number")
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("must be between %v and %v", lo, hi)
	}
	return v, nil
}

func formatCoord(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

// MethodOrDefault returns the configured calculation method, or
// prayer.DefaultMethod when unset or unrecognised.
func (c *Config) MethodOrDefault() prayer.Method {
	if m, err := prayer.ParseMethod(c.Method); err == nil {
		return m
	}
	return prayer.DefaultMethod
}

// MadhabOrDefault returns the configured madhab, or Shafi.
func (c *Config) MadhabOrDefault() prayer.Madhab {
	if m, err := prayer.ParseMadhab(c.Madhab); err == nil {
		return m
	}
	return prayer.Shafi
}

// PrayerNames returns the configured prayer list, or def when unset.
func (c *Config) PrayerNames(def []string) []string {
	if c.Prayers == "" {
		return def
	}
	var names []string
	for _, n := range strings.Split(c.Prayers, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Location returns the configured coordinates, or nil when none are set.
func (c *Config) Location() *geo.Location {
	if c.Latitude == 0 && c.Longitude == 0 {
		return nil
	}
	return &geo.Location{
		Coordinates: geo.Coordinates{Latitude: c.Latitude, Longitude: c.Longitude},
		City:        c.City,
		Country:     c.Country,
		Timezone:    c.Timezone,
		Source:      geo.SourceConfig,
	}
}

// RemindersEnabled reports whether reminders are on. They default to on.
func (n Notifications) RemindersEnabled() bool {
	return n.Enabled == nil || *n.Enabled
}

// SoundEnabled reports whether reminders play a sound. Defaults to on.
func (n Notifications) SoundEnabled() bool {
	return n.Sound == nil || *n.Sound
}

// Lead returns how many minutes before a prayer its reminder fires.
func (n Notifications) Lead() int {
	if n.BeforeMinutes == nil {
		return DefaultReminderMinutes
	}
	return *n.BeforeMinutes
}
