package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Daily fires at local midnight.
const Daily = "0 0 * * *"

// Job is a unit of scheduled work. The context is cancelled when the
// scheduler stops.
type Job func(ctx context.Context, now time.Time) error

// Scheduler runs jobs on cron specs evaluated in a fixed location, apart
// from request handling.
type Scheduler struct {
	cron   *cron.Cron
	loc    *time.Location
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler whose specs are read in loc.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{})),
		),
		loc:    loc,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under name. Errors are logged; the next tick still runs.
func (s *Scheduler) Add(spec, name string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.Run(name, job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Run executes job once with logging, as a tick would.
func (s *Scheduler) Run(name string, job Job) {
	now := time.Now().In(s.loc)
	log.Info().Str("job", name).Time("now", now).Msg("[CRON] job triggered")
	if err := job(s.ctx, now); err != nil {
		log.Error().Err(err).Str("job", name).Msg("[CRON] job failed")
		return
	}
	log.Info().Str("job", name).Dur("duration", time.Since(now)).Msg("[CRON] job finished")
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Str("location", s.loc.String()).Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop cancels running jobs' context and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// Next reports when the named spec would next fire after t.
func (s *Scheduler) Next(spec string, t time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(t.In(s.loc)), nil
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
