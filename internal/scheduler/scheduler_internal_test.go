package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type stubSweeper struct {
	calls []time.Time
}

func (s *stubSweeper) Sweep(now time.Time) int {
	s.calls = append(s.calls, now)

	return 1
}

type stubPruner struct {
	before []time.Time
	err    error
}

func (s *stubPruner) PruneAttempts(_ context.Context, before time.Time) (int64, error) {
	s.before = append(s.before, before)

	return 3, s.err
}

func newTestScheduler(ctx context.Context, sweeper *stubSweeper, pruner *stubPruner, now time.Time) *Scheduler {
	s := New(ctx, []Sweeper{sweeper}, pruner, 24*time.Hour, slog.Default())
	s.now = func() time.Time { return now }

	return s
}

func TestSweepUsesCurrentTime(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	sweeper := &stubSweeper{}
	s := newTestScheduler(context.Background(), sweeper, &stubPruner{}, now)

	s.sweep()

	if len(sweeper.calls) != 1 || !sweeper.calls[0].Equal(now) {
		t.Fatalf("unexpected sweep calls: %v", sweeper.calls)
	}
}

func TestSweepVisitsEverySweeper(t *testing.T) {
	first, second := &stubSweeper{}, &stubSweeper{}
	s := New(context.Background(), []Sweeper{first, second}, &stubPruner{}, time.Hour, slog.Default())

	s.sweep()

	if len(first.calls) != 1 || len(second.calls) != 1 {
		t.Fatalf("expected both sweepers to run, got %d and %d", len(first.calls), len(second.calls))
	}
}

func TestStartWithoutRetentionSkipsPrune(t *testing.T) {
	s := New(context.Background(), nil, &stubPruner{}, 0, slog.Default())

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	if n := len(s.cron.Entries()); n != 1 {
		t.Fatalf("expected only the sweep entry, got %d", n)
	}
}

func TestPruneJournalUsesRetention(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)
	pruner := &stubPruner{}
	s := newTestScheduler(context.Background(), &stubSweeper{}, pruner, now)

	s.pruneJournal()

	if len(pruner.before) != 1 {
		t.Fatalf("expected one prune call, got %d", len(pruner.before))
	}

	if want := now.Add(-24 * time.Hour); !pruner.before[0].Equal(want) {
		t.Fatalf("unexpected cutoff: got %s want %s", pruner.before[0], want)
	}
}

func TestPruneJournalToleratesErrors(t *testing.T) {
	pruner := &stubPruner{err: errors.New("db is locked")}
	s := newTestScheduler(context.Background(), &stubSweeper{}, pruner, time.Now())

	s.pruneJournal()

	if len(pruner.before) != 1 {
		t.Fatalf("expected prune to be attempted")
	}
}

func TestPruneJournalSkipsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pruner := &stubPruner{}
	s := newTestScheduler(ctx, &stubSweeper{}, pruner, time.Now())

	s.pruneJournal()

	if len(pruner.before) != 0 {
		t.Fatalf("expected no prune after context is done")
	}
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler(context.Background(), &stubSweeper{}, &stubPruner{}, time.Now())

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := len(s.cron.Entries()); n != 2 {
		t.Fatalf("expected 2 cron entries, got %d", n)
	}

	s.Stop()
}
