package progress

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// newTestSQL connects to DATABASE_URL, skipping when it is unset. The
// tables are truncated before and after the test.
func newTestSQL(t *testing.T) *SQLStore {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := OpenSQL(ctx, SQLOptions{URL: url, MaxRetries: 1, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Reset(context.Background())
		s.Close()
	})
	return s
}

func TestSQLStore_SaveLoad(t *testing.T) {
	s := newTestSQL(t)
	ctx := context.Background()

	p := New()
	completeDay(t, p, date(4), date(5))
	if err := p.Record(date(5), "fajr", true, date(5)); err != nil {
		t.Fatal(err)
	}
	if _, err := p.CompleteLesson("wudu"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DailyPrayers["2026-03-04"] != p.DailyPrayers["2026-03-04"] ||
		got.DailyPrayers["2026-03-05"] != p.DailyPrayers["2026-03-05"] {
		t.Errorf("DailyPrayers = %v, want %v", got.DailyPrayers, p.DailyPrayers)
	}
	if got.TotalPoints != p.TotalPoints || got.Streak != p.Streak {
		t.Errorf("totals = %d/%d, want %d/%d", got.TotalPoints, got.Streak, p.TotalPoints, p.Streak)
	}
	if len(got.RewardedDays) != 1 || got.RewardedDays[0] != "2026-03-04" {
		t.Errorf("RewardedDays = %v", got.RewardedDays)
	}
	if len(got.LessonsCompleted) != 1 || got.LessonsCompleted[0] != "wudu" {
		t.Errorf("LessonsCompleted = %v", got.LessonsCompleted)
	}
}

func TestSQLStore_Tracker(t *testing.T) {
	tr := NewTracker(newTestSQL(t))
	tr.now = func() time.Time { return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	for _, name := range obligatory {
		if _, err := tr.RecordPrayer(ctx, date(10), name, true); err != nil {
			t.Fatal(err)
		}
	}
	s, err := tr.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.Streak != 1 || s.TotalPoints != PointsPerCompleteDay {
		t.Errorf("Stats = %+v", s)
	}
}

func TestOpenSQL_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := OpenSQL(ctx, SQLOptions{
		URL:           "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1",
		MaxRetries:    2,
		RetryInterval: 10 * time.Millisecond,
		Logger:        zerolog.Nop(),
	})
	if err == nil {
		t.Fatal("expected connection error")
	}
}
