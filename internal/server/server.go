// Package server exposes the calculator, qibla and progress tracker over
// HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/revert-companion/prayer-times/internal/cache"
	"github.com/revert-companion/prayer-times/internal/prayer"
	"github.com/revert-companion/prayer-times/internal/progress"
)

// Options configure a Server.
type Options struct {
	// Cache memoises timetables. Nil computes every request.
	Cache cache.TimesStore
	// Progress serves the tracker endpoints when set.
	Progress *progress.Tracker

	Method prayer.Method
	Madhab prayer.Madhab

	// AllowOrigins lists the CORS origins; empty allows any.
	AllowOrigins []string
	Logger       zerolog.Logger

	// TickInterval is how often the next-prayer socket pushes an update.
	TickInterval time.Duration
}

// Server is the HTTP API.
type Server struct {
	engine   *gin.Engine
	cache    cache.TimesStore
	progress *progress.Tracker
	method   prayer.Method
	madhab   prayer.Madhab
	log      zerolog.Logger
	tick     time.Duration
	now      func() time.Time
}

// New builds the router.
func New(opts Options) *Server {
	s := &Server{
		engine:   gin.New(),
		cache:    opts.Cache,
		progress: opts.Progress,
		method:   opts.Method,
		madhab:   opts.Madhab,
		log:      opts.Logger,
		tick:     opts.TickInterval,
		now:      time.Now,
	}
	if !s.method.Valid() {
		s.method = prayer.DefaultMethod
	}
	if s.madhab == "" {
		s.madhab = prayer.Shafi
	}
	if s.tick <= 0 {
		s.tick = 30 * time.Second
	}

	s.engine.Use(gin.Recovery(), requestLogger(s.log))
	s.engine.Use(cors.New(corsConfig(opts.AllowOrigins)))
	s.routes()
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "X-Cache"},
	}
	if len(origins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)

	v1 := s.engine.Group("/api/v1")
	v1.GET("/timings", s.timings)
	v1.GET("/next", s.next)
	v1.GET("/next/ws", s.nextSocket)
	v1.GET("/qibla", s.qibla)
	v1.GET("/methods", s.methods)

	if s.progress != nil {
		v1.GET("/progress", s.getProgress)
		v1.POST("/progress/prayers", s.recordPrayer)
		v1.POST("/progress/lessons", s.completeLesson)
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("address", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Info().Msg("server stopped")
	return nil
}

// requestLogger writes one structured line per request and hands the
// logger to handlers through the request context.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(log.WithContext(c.Request.Context()))
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
