package progress

import (
	"context"
	"sync"
	"time"

	"github.com/revert-companion/prayer-times/internal/solar"
)

// Store persists progress.
type Store interface {
	Load(ctx context.Context) (*Progress, error)
	Save(ctx context.Context, p *Progress) error
	Reset(ctx context.Context) error
}

// Tracker applies updates to a Store. Each update is a load, modify, save
// cycle serialised by the tracker.
type Tracker struct {
	store Store
	now   func() time.Time
	mu    sync.Mutex
}

// NewTracker returns a tracker over s using the wall clock.
func NewTracker(s Store) *Tracker {
	return NewTrackerWithClock(s, time.Now)
}

// NewTrackerWithClock returns a tracker that takes today's date from now.
func NewTrackerWithClock(s Store, now func() time.Time) *Tracker {
	return &Tracker{store: s, now: now}
}

func (t *Tracker) today() solar.Date {
	return Today(t.now())
}

func (t *Tracker) update(ctx context.Context, fn func(p *Progress) error) (*Progress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := t.store.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RecordPrayer marks one prayer of date as prayed or not.
func (t *Tracker) RecordPrayer(ctx context.Context, date solar.Date, name string, prayed bool) (*Progress, error) {
	today := t.today()
	return t.update(ctx, func(p *Progress) error {
		return p.Record(date, name, prayed, today)
	})
}

// MarkLessonComplete records a finished lesson.
func (t *Tracker) MarkLessonComplete(ctx context.Context, id string) (*Progress, error) {
	return t.update(ctx, func(p *Progress) error {
		_, err := p.CompleteLesson(id)
		return err
	})
}

// Progress loads the stored progress with its streak brought up to date.
func (t *Tracker) Progress(ctx context.Context) (*Progress, error) {
	p, err := t.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	p.Streak = p.StreakAt(t.today())
	return p, nil
}

// Stats loads progress and summarises it.
func (t *Tracker) Stats(ctx context.Context) (Stats, error) {
	p, err := t.store.Load(ctx)
	if err != nil {
		return Stats{}, err
	}
	return p.Stats(t.today()), nil
}

// Reset clears all progress.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Reset(ctx)
}

// Ping checks the store's backend when it has one to check.
func (t *Tracker) Ping(ctx context.Context) error {
	if p, ok := t.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
