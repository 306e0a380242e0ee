package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	SweepSpec        = "*/5 * * * *"
	JournalPruneSpec = "0 3 * * *"
	Timezone         = "UTC"

	TimezoneOffsetSeconds = 0
	pruneJournalTimeout   = 5 * time.Minute
)

// Sweeper drops in-memory entries that are stale at now.
type Sweeper interface {
	Sweep(now time.Time) int
}

type JournalPruner interface {
	PruneAttempts(ctx context.Context, before time.Time) (int64, error)
}

type Scheduler struct {
	ctx       context.Context
	cron      *cron.Cron
	sweepers  []Sweeper
	journal   JournalPruner
	retention time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func New(
	ctx context.Context,
	sweepers []Sweeper,
	journal JournalPruner,
	retention time.Duration,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:       ctx,
		cron:      c,
		sweepers:  sweepers,
		journal:   journal,
		retention: retention,
		now:       time.Now,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(SweepSpec, s.sweep); err != nil {
		return err
	}

	if s.retention > 0 {
		if _, err := s.cron.AddFunc(JournalPruneSpec, s.pruneJournal); err != nil {
			return err
		}
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweep() {
	now := s.now()

	removed := 0
	for _, sw := range s.sweepers {
		removed += sw.Sweep(now)
	}

	if removed > 0 {
		s.log.InfoContext(s.ctx, "Stale entries are swept",
			"removed", removed,
			"sweepers", len(s.sweepers))
	}
}

func (s *Scheduler) pruneJournal() {
	ctx, cancel := context.WithTimeout(s.ctx, pruneJournalTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	cutoff := s.now().Add(-s.retention)

	removed, err := s.journal.PruneAttempts(ctx, cutoff)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to prune journal",
			"error", err,
			"cutoff", cutoff)

		return
	}

	s.log.InfoContext(ctx, "Journal is pruned",
		"removed", removed,
		"cutoff", cutoff)
}
