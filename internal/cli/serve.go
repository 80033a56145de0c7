package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/revert-companion/prayer-times/internal/cache"
	"github.com/revert-companion/prayer-times/internal/config"
	"github.com/revert-companion/prayer-times/internal/progress"
	"github.com/revert-companion/prayer-times/internal/server"
)

var (
	flagAddress string
	flagTick    time.Duration
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: "Serve prayer times, qibla and the prayer tracker over HTTP.\n\n" +
			"Settings come from the environment (and .env):\n" +
			"  SERVER_ADDRESS      listen address (default :8080)\n" +
			"  REDIS_ADDRESS       share timetables through Redis instead of the cache directory\n" +
			"  REDIS_USERNAME, REDIS_PASSWORD, REDIS_DB\n" +
			"  DATABASE_URL        keep progress in PostgreSQL instead of --data-dir\n" +
			"  CORS_ALLOW_ORIGINS  comma-separated origins (default: any)\n" +
			"  LOG_LEVEL           debug, info, warn or error (default info)",
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&flagAddress, "address", "", "Listen address (overrides SERVER_ADDRESS)")
	cmd.Flags().StringVar(&flagDataDir, "data-dir", "", "Progress directory when DATABASE_URL is unset")
	cmd.Flags().DurationVar(&flagTick, "tick", 30*time.Second, "How often the next-prayer websocket pushes an update")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := config.ServerFromEnv(ctx, nil)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("address") {
		sc.Address = flagAddress
	}

	level := sc.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = FlagLogLevel
	}
	log, err := newJSONLogger(cmd.ErrOrStderr(), level)
	if err != nil {
		return err
	}
	if log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	store, closeStore, err := openTimesStore(ctx, sc, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	tracker, closeTracker, err := openTracker(ctx, sc, log)
	if err != nil {
		return err
	}
	defer closeTracker()

	srv := server.New(server.Options{
		Cache:        store,
		Progress:     tracker,
		Method:       cfg.MethodOrDefault(),
		Madhab:       cfg.MadhabOrDefault(),
		AllowOrigins: sc.AllowOrigins,
		Logger:       log,
		TickInterval: flagTick,
	})
	return srv.Run(ctx, sc.Address)
}

// openTimesStore picks Redis when configured and the file cache otherwise.
// Without a usable file cache the server computes every request.
func openTimesStore(ctx context.Context, sc config.Server, cfg *config.Config, log zerolog.Logger) (cache.TimesStore, func(), error) {
	if sc.RedisAddress != "" {
		r, err := cache.NewRedis(ctx, cache.RedisOptions{
			Address:  sc.RedisAddress,
			Username: sc.RedisUsername,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info().Str("address", sc.RedisAddress).Msg("timetable cache: redis")
		return r, func() { _ = r.Close() }, nil
	}

	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		log.Warn().Err(err).Msg("cache disabled")
		return nil, func() {}, nil
	}
	log.Info().Str("dir", c.Dir()).Msg("timetable cache: files")
	return c, func() {}, nil
}

// openTracker picks PostgreSQL when configured and the progress file
// otherwise.
func openTracker(ctx context.Context, sc config.Server, log zerolog.Logger) (*progress.Tracker, func(), error) {
	if sc.DatabaseURL != "" {
		db, err := progress.OpenSQL(ctx, progress.SQLOptions{URL: sc.DatabaseURL, Logger: log})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open progress database: %w", err)
		}
		log.Info().Msg("progress store: postgres")
		return progress.NewTracker(db), func() { _ = db.Close() }, nil
	}

	fs, err := progress.NewFileStore(flagDataDir)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("path", fs.Path()).Msg("progress store: file")
	return progress.NewTracker(fs), func() {}, nil
}
