package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const sweepTimeout = time.Minute

// Purger deletes activity recorded before a cutoff.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweeper periodically deletes activity older than the retention window.
type RetentionSweeper struct {
	purger    Purger
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
	done      chan struct{}
	stopOnce  sync.Once
}

// NewRetentionSweeper creates a sweeper that runs on the given cron schedule, for
// example "@daily" or "0 3 * * *".
func NewRetentionSweeper(purger Purger, retention time.Duration, schedule string) (*RetentionSweeper, error) {
	if retention <= 0 {
		return nil, errors.New("retention must be positive")
	}
	s := &RetentionSweeper{
		purger:    purger,
		retention: retention,
		cron:      cron.New(),
		now:       time.Now,
		done:      make(chan struct{}),
	}
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Run sweeps once, then on every scheduled tick until Stop is called.
func (s *RetentionSweeper) Run() {
	log.Info().Dur("retention", s.retention).Msg("Starting activity retention sweeper")
	s.sweep()
	s.cron.Start()

	<-s.done
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped activity retention sweeper")
}

// Stop halts the sweeper. Run returns once an in-flight sweep finishes.
func (s *RetentionSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Sweep deletes every entry older than the retention window.
func (s *RetentionSweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	return s.purger.Purge(ctx, cutoff)
}

func (s *RetentionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Retention sweep failed")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("Purged expired activity")
	}
}
