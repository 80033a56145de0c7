package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	cerrors "cloudeng.io/errors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
)

// EnvPrefix prefixes every environment override, e.g.
// PRAYER_TIMES_METHOD or PRAYER_TIMES_NOTIFICATIONS_BEFORE_MINUTES.
const EnvPrefix = "PRAYER_TIMES_"

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. With no
// arguments it reads ./.env. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load %s: %w", strings.Join(present, ", "), err)
	}
	return nil
}

// ApplyEnv overrides c with any PRAYER_TIMES_* variables found by lookup
// (os.LookupEnv when nil). Every key is attempted; the returned error
// collects all invalid values.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	errs := &cerrors.M{}
	for _, key := range ValidKeys {
		name := EnvName(key)
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := c.Set(key, strings.TrimSpace(v)); err != nil {
			errs.Append(fmt.Errorf("%s: %w", name, err))
		}
	}
	return errs.Err()
}

// Server holds the settings of the HTTP API, read from the environment.
type Server struct {
	Address       string   `env:"SERVER_ADDRESS,default=:8080"`
	RedisAddress  string   `env:"REDIS_ADDRESS"`
	RedisUsername string   `env:"REDIS_USERNAME"`
	RedisPassword string   `env:"REDIS_PASSWORD"`
	RedisDB       int      `env:"REDIS_DB,default=0"`
	DatabaseURL   string   `env:"DATABASE_URL"`
	LogLevel      string   `env:"LOG_LEVEL,default=info"`
	AllowOrigins  []string `env:"CORS_ALLOW_ORIGINS"`
}

type lookupFunc func(string) (string, bool)

func (f lookupFunc) Lookup(key string) (string, bool) { return f(key) }

// ServerFromEnv reads the API server settings from the environment
// (os.LookupEnv when lookup is nil).
func ServerFromEnv(ctx context.Context, lookup func(string) (string, bool)) (Server, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var s Server
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &s,
		Lookuper: lookupFunc(lookup),
	}); err != nil {
		return s, fmt.Errorf("failed to process server environment: %w", err)
	}

	origins := s.AllowOrigins[:0]
	for _, o := range s.AllowOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	s.AllowOrigins = origins

	errs := &cerrors.M{}
	if s.RedisDB < 0 {
		errs.Append(fmt.Errorf("REDIS_DB: invalid database number %d", s.RedisDB))
	}
	if s.LogLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel)); err != nil {
			errs.Append(fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}
	return s, errs.Err()
}
