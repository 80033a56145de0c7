package geo

import (
	"context"

	"github.com/rs/zerolog"
)

// Store persists the last detected location between runs.
type Store interface {
	LoadGeo() *Location
	SaveGeo(*Location) error
}

// Resolver picks the observer location. The first of these wins:
// explicit coordinates, a cached detection, a fresh IP detection, and
// finally Fallback. Resolve never fails.
type Resolver struct {
	// Explicit is a location given on the command line or in the config
	// file. Nil means none was given.
	Explicit *Location
	// Cache may be nil.
	Cache Store
	// Detect defaults to DetectLocation.
	Detect func(context.Context) (*Location, error)
	// NoDetect skips the network lookup.
	NoDetect bool
	Logger   zerolog.Logger
}

// Resolve returns the best available location.
func (r Resolver) Resolve(ctx context.Context) Location {
	if r.Explicit != nil {
		return *r.Explicit
	}

	if r.Cache != nil {
		if loc := r.Cache.LoadGeo(); loc != nil {
			l := *loc
			l.Source = SourceCache
			return l
		}
	}

	if !r.NoDetect {
		detect := r.Detect
		if detect == nil {
			detect = DetectLocation
		}
		loc, err := detect(ctx)
		if err == nil {
			if r.Cache != nil {
				if err := r.Cache.SaveGeo(loc); err != nil {
					r.Logger.Warn().Err(err).Msg("could not cache detected location")
				}
			}
			return *loc
		}
		r.Logger.Warn().Err(err).Msg("location detection failed")
	}

	fb := Fallback()
	r.Logger.Warn().Str("location", fb.Label()).Msg("using fallback location")
	return fb
}
