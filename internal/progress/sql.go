package progress

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/revert-companion/prayer-times/internal/solar"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// SQLOptions configure the PostgreSQL store.
type SQLOptions struct {
	URL string
	// MaxRetries is how many connection attempts are made; zero means 10.
	MaxRetries int
	// RetryInterval defaults to two seconds.
	RetryInterval time.Duration
	Logger        zerolog.Logger
}

// SQLStore keeps progress in PostgreSQL, for the HTTP server.
type SQLStore struct {
	db  *sqlx.DB
	log zerolog.Logger
}

type dayRow struct {
	Date     time.Time `db:"day"`
	Rewarded bool      `db:"rewarded"`
	Day
}

type totalsRow struct {
	Streak      int `db:"streak"`
	TotalPoints int `db:"total_points"`
}

// OpenSQL connects to PostgreSQL, retrying while the server comes up, and
// applies the schema.
func OpenSQL(ctx context.Context, opts SQLOptions) (*SQLStore, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 10
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 2 * time.Second
	}

	var (
		db  *sqlx.DB
		err error
	)
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		db, err = sqlx.ConnectContext(ctx, "postgres", opts.URL)
		if err == nil {
			opts.Logger.Info().Msg("connected to database")
			break
		}

		opts.Logger.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", opts.RetryInterval)

		if attempt == opts.MaxRetries {
			return nil, fmt.Errorf("could not connect to database after %d attempts: %w", opts.MaxRetries, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryInterval):
		}
	}

	s := &SQLStore{db: db, log: opts.Logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate executes every embedded *.up.sql file in name order.
func (s *SQLStore) migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("failed to glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		stmt, err := migrations.ReadFile(file)
		if err != nil {
			return fmt.Errorf("could not read migration %q: %w", file, err)
		}
		if len(stmt) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, string(stmt)); err != nil {
			return fmt.Errorf("error executing migration %q: %w", file, err)
		}
	}
	return nil
}

// Load reads all progress.
func (s *SQLStore) Load(ctx context.Context) (*Progress, error) {
	p := New()

	var days []dayRow
	if err := s.db.SelectContext(ctx, &days,
		`SELECT day, fajr, dhuhr, asr, maghrib, isha, rewarded FROM prayer_days ORDER BY day`); err != nil {
		s.log.Error().Err(err).Msg("failed to load prayer days")
		return nil, fmt.Errorf("load prayer days: %w", err)
	}
	for _, d := range days {
		key := solar.DateOf(d.Date).String()
		p.DailyPrayers[key] = d.Day
		if d.Rewarded {
			p.RewardedDays = append(p.RewardedDays, key)
		}
	}

	if err := s.db.SelectContext(ctx, &p.LessonsCompleted,
		`SELECT lesson_id FROM lessons_completed ORDER BY completed_at, lesson_id`); err != nil {
		s.log.Error().Err(err).Msg("failed to load lessons")
		return nil, fmt.Errorf("load lessons: %w", err)
	}

	var totals []totalsRow
	if err := s.db.SelectContext(ctx, &totals,
		`SELECT streak, total_points FROM progress_totals WHERE id = 1`); err != nil {
		s.log.Error().Err(err).Msg("failed to load totals")
		return nil, fmt.Errorf("load totals: %w", err)
	}
	if len(totals) == 1 {
		p.Streak = totals[0].Streak
		p.TotalPoints = totals[0].TotalPoints
	}
	return p, nil
}

// Save writes progress in one transaction. Days and lessons are upserted;
// nothing is deleted.
func (s *SQLStore) Save(ctx context.Context, p *Progress) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rewarded := make(map[string]bool, len(p.RewardedDays))
	for _, d := range p.RewardedDays {
		rewarded[d] = true
	}

	for key, day := range p.DailyPrayers {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO prayer_days (day, fajr, dhuhr, asr, maghrib, isha, rewarded)
			VALUES (:day, :fajr, :dhuhr, :asr, :maghrib, :isha, :rewarded)
			ON CONFLICT (day) DO UPDATE SET
				fajr = EXCLUDED.fajr, dhuhr = EXCLUDED.dhuhr, asr = EXCLUDED.asr,
				maghrib = EXCLUDED.maghrib, isha = EXCLUDED.isha, rewarded = EXCLUDED.rewarded`,
			map[string]any{
				"day": key, "fajr": day.Fajr, "dhuhr": day.Dhuhr, "asr": day.Asr,
				"maghrib": day.Maghrib, "isha": day.Isha, "rewarded": rewarded[key],
			})
		if err != nil {
			return fmt.Errorf("save day %s: %w", key, err)
		}
	}

	for _, id := range p.LessonsCompleted {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO lessons_completed (lesson_id) VALUES ($1) ON CONFLICT DO NOTHING`, id); err != nil {
			return fmt.Errorf("save lesson %s: %w", id, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO progress_totals (id, streak, total_points) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET streak = EXCLUDED.streak, total_points = EXCLUDED.total_points`,
		p.Streak, p.TotalPoints); err != nil {
		return fmt.Errorf("save totals: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Reset deletes all progress.
func (s *SQLStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`TRUNCATE prayer_days, lessons_completed, progress_totals`); err != nil {
		s.log.Error().Err(err).Msg("failed to reset progress")
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
