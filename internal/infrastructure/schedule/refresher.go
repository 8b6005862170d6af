// Package schedule re-runs the dashboard refresh on a cron schedule so
// rolling windows advance even when no file changes.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/config"
)

const runTimeout = 30 * time.Second

// Job is the work done on every tick.
type Job func(ctx context.Context) error

type Refresher struct {
	log zerolog.Logger
	job Job
	c   *cron.Cron
	id  cron.EntryID
}

// NewRefresher registers job on spec, a five-field cron expression or an
// @-descriptor such as "@every 1m". A tick that fires while the previous run
// is still going is skipped.
func NewRefresher(spec string, job Job, log zerolog.Logger) (*Refresher, error) {
	c := cron.New(
		cron.WithParser(config.SchedulerParser()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	r := &Refresher{log: log, job: job, c: c}
	id, err := c.AddFunc(spec, r.tick)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	r.id = id
	return r, nil
}

func (r *Refresher) Start() { r.c.Start() }

// Stop halts the scheduler and waits for a running tick to finish or ctx to
// expire.
func (r *Refresher) Stop(ctx context.Context) {
	done := r.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Next returns the next scheduled run, zero before Start.
func (r *Refresher) Next() time.Time {
	return r.c.Entry(r.id).Next
}

// RunNow runs the job once outside the schedule.
func (r *Refresher) RunNow(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()
	return r.job(ctx)
}

func (r *Refresher) tick() {
	if err := r.RunNow(context.Background()); err != nil {
		r.log.Error().Err(err).Msg("schedule: refresh failed")
		return
	}
	r.log.Debug().Msg("schedule: refreshed")
}
