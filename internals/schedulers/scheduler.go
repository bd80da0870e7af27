package schedulers

import (
	"context"
	"time"

	ierr "pesantrenku_backend/internals/errors"
	"pesantrenku_backend/internals/logger"

	"github.com/robfig/cron/v3"
)

// Job runs with its own timeout; the context is cancelled when the scheduler stops.
type Job func(ctx context.Context) error

type Scheduler struct {
	c      *cron.Cron
	log    *logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

type cronLogger struct{ l *logger.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) { c.l.Debugw(msg, kv...) }
func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Errorw(msg, append(kv, "error", err)...)
}

func New(log *logger.Logger) *Scheduler {
	l := log.Named("cron")
	cl := cronLogger{l: l}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		c: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:    l,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register adds a named job. Invalid cron specs are reported as validation errors.
func (s *Scheduler) Register(name, spec string, timeout time.Duration, job Job) error {
	_, err := s.c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(s.ctx, timeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			s.log.Errorw("job failed", "job", name, "error", err, "elapsed", time.Since(start))
			return
		}
		s.log.Infow("job done", "job", name, "elapsed", time.Since(start))
	})
	if err != nil {
		return ierr.WithError(err).
			WithHintf("jadwal cron %q tidak valid untuk %s", spec, name).
			Mark(ierr.ErrValidation)
	}
	s.log.Infow("job registered", "job", name, "schedule", spec)
	return nil
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop waits for running jobs (bounded by ctx) after cancelling their contexts.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
}
