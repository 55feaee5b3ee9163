// Package scheduler runs the periodic cache refresh in serve mode.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tbourn/compound-data-tool/internal/services"
)

// Refresher is the part of services.CompoundService the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) (services.RefreshReport, error)
}

// Scheduler triggers Refresh on a cron schedule. Runs never overlap: a tick
// that fires while the previous refresh is still going is skipped.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New parses spec (standard five field cron syntax or a descriptor such as
// "@daily") and registers the refresh job. The scheduler is idle until Start.
func New(spec string, r Refresher, log zerolog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	_, err := s.cron.AddFunc(spec, func() {
		s.wg.Add(1)
		defer s.wg.Done()
		s.run(r)
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run(r Refresher) {
	s.log.Info().Msg("scheduled refresh started")
	report, err := r.Refresh(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Int("refreshed", len(report.Refreshed)).Msg("scheduled refresh aborted")
		return
	}
	s.log.Info().
		Int("refreshed", len(report.Refreshed)).
		Int("failed", len(report.Failed)).
		Msg("scheduled refresh finished")
}

// Start begins firing the schedule in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop prevents further runs, cancels a running refresh and waits for it to
// return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	s.cancel()
	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
