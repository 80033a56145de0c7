package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/revert-companion/prayer-times/internal/cache"
	"github.com/revert-companion/prayer-times/internal/geo"
	"github.com/revert-companion/prayer-times/internal/prayer"
	"github.com/revert-companion/prayer-times/internal/progress"
	"github.com/revert-companion/prayer-times/internal/qibla"
	"github.com/revert-companion/prayer-times/internal/solar"
)

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// place is a parsed placeQuery.
type place struct {
	coords geo.Coordinates
	method prayer.Method
	opts   prayer.Options
	zone   string
	date   solar.Date
}

func (s *Server) parsePlace(c *gin.Context) (place, error) {
	var q placeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return place{}, err
	}

	p := place{
		coords: geo.Coordinates{Latitude: *q.Lat, Longitude: *q.Lon},
		method: s.method,
		opts:   prayer.Options{Madhab: s.madhab},
		zone:   "LMT",
	}
	if q.Method != "" {
		m, err := prayer.ParseMethod(q.Method)
		if err != nil {
			return place{}, err
		}
		p.method = m
	}
	if q.Madhab != "" {
		m, err := prayer.ParseMadhab(q.Madhab)
		if err != nil {
			return place{}, err
		}
		p.opts.Madhab = m
	}
	if q.TZ != "" {
		zone, err := time.LoadLocation(q.TZ)
		if err != nil {
			return place{}, fmt.Errorf("invalid tz %q: %w", q.TZ, err)
		}
		p.opts.Zone = zone
		p.zone = q.TZ
	}

	p.date = solar.DateOf(s.now().In(p.opts.Clock(p.coords)))
	if q.Date != "" {
		t, err := time.Parse(time.DateOnly, q.Date)
		if err != nil {
			return place{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", q.Date)
		}
		p.date = solar.DateOf(t)
	}
	return p, nil
}

func (s *Server) timings(c *gin.Context) {
	p, err := s.parsePlace(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	key := cache.Key{Date: p.date, Location: p.coords, Method: p.method, Madhab: p.opts.Madhab}
	if p.opts.Zone != nil {
		key.Zone = p.zone
	}
	times, hit := cache.Times(c.Request.Context(), s.cache, key, func() prayer.PrayerTimes {
		return prayer.Compute(p.date, p.coords, p.method, p.opts).Format()
	})
	if hit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}

	c.JSON(http.StatusOK, timingsResponse{
		Date:       p.date.String(),
		Location:   p.coords,
		Method:     p.method,
		MethodName: p.method.Name(),
		Madhab:     p.opts.Madhab,
		Zone:       p.zone,
		Timings:    times,
	})
}

func (s *Server) upcoming(p place) (nextResponse, error) {
	now := s.now()
	next, err := prayer.Upcoming(now, p.coords, p.method, p.opts, prayer.Obligatory)
	if err != nil {
		return nextResponse{}, err
	}
	remaining := prayer.TimeRemaining(next, now)
	return nextResponse{
		Name:             next.Name,
		Time:             next.Time.Format(time.RFC3339),
		RemainingSeconds: int64(remaining.Seconds()),
		Remaining:        prayer.FormatRemaining(remaining),
	}, nil
}

func (s *Server) next(c *gin.Context) {
	p, err := s.parsePlace(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	resp, err := s.upcoming(p)
	if errors.Is(err, prayer.ErrNoUpcoming) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// nextSocket pushes the next prayer on connect and then every tick until
// the client goes away.
func (s *Server) nextSocket(c *gin.Context) {
	p, err := s.parsePlace(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The read loop only notices the client closing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		resp, err := s.upcoming(p)
		var msg any = resp
		if err != nil {
			msg = gin.H{"error": err.Error()}
		}
		if err := conn.WriteJSON(msg); err != nil {
			s.log.Debug().Err(err).Msg("websocket write failed")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *Server) qibla(c *gin.Context) {
	var q qiblaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	loc := geo.Coordinates{Latitude: *q.Lat, Longitude: *q.Lon}
	bearing := qibla.Bearing(loc)
	resp := qiblaResponse{
		Bearing:    round2(bearing),
		Cardinal:   qibla.Cardinal(bearing),
		DistanceKm: qibla.DistanceKm(loc),
	}
	if q.Heading != nil {
		rel := round2(qibla.Relative(bearing, *q.Heading))
		resp.Relative = &rel
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) methods(c *gin.Context) {
	var out []methodResponse
	for _, m := range prayer.Methods() {
		params := m.Params()
		out = append(out, methodResponse{
			ID:           m,
			Name:         m.Name(),
			FajrAngle:    params.FajrAngle,
			IshaAngle:    params.IshaAngle,
			IshaInterval: params.IshaInterval.Minutes(),
			AlAdhanID:    m.AlAdhanID(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"default": s.method, "methods": out})
}

func (s *Server) progressResponse(p *progress.Progress) progressResponse {
	stats := p.Stats(progress.Today(s.now()))
	return progressResponse{Progress: p, Stats: stats, Achievements: stats.Achievements()}
}

func (s *Server) getProgress(c *gin.Context) {
	p, err := s.progress.Progress(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load progress")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load progress"})
		return
	}
	c.JSON(http.StatusOK, s.progressResponse(p))
}

func (s *Server) recordPrayer(c *gin.Context) {
	var req recordPrayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid date %q: want YYYY-MM-DD", req.Date))
		return
	}
	prayed := req.Prayed == nil || *req.Prayed

	p, err := s.progress.RecordPrayer(c.Request.Context(), solar.DateOf(t), req.Prayer, prayed)
	if errors.Is(err, progress.ErrUnknownPrayer) {
		badRequest(c, err)
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to record prayer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record prayer"})
		return
	}
	c.JSON(http.StatusOK, s.progressResponse(p))
}

func (s *Server) completeLesson(c *gin.Context) {
	var req completeLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		badRequest(c, errors.New("lesson id must not be empty"))
		return
	}

	p, err := s.progress.MarkLessonComplete(c.Request.Context(), req.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to complete lesson")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete lesson"})
		return
	}
	c.JSON(http.StatusOK, s.progressResponse(p))
}

type pinger interface {
	Ping(ctx context.Context) error
}

// health reports ok once every backend that can be pinged answers.
func (s *Server) health(c *gin.Context) {
	var checks []pinger
	if p, ok := s.cache.(pinger); ok {
		checks = append(checks, p)
	}
	if s.progress != nil {
		checks = append(checks, s.progress)
	}
	for _, p := range checks {
		if err := p.Ping(c.Request.Context()); err != nil {
			s.log.Error().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
