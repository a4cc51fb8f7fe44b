package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"estatelink_backend/pkg/logger"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

var ErrUnknownJob = errors.New("unknown job")

// Scheduler runs named jobs on cron schedules. A job never overlaps with
// itself, whether it was started by its schedule or by RunNow.
type Scheduler struct {
	cron    *cron.Cron
	flight  singleflight.Group
	mu      sync.Mutex
	jobs    map[string]Job
	timeout time.Duration
}

func NewScheduler() *Scheduler {
	l := cronLogger{log: logger.With("component", "cron")}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)), cron.WithLogger(l)),
		jobs:    make(map[string]Job),
		timeout: 30 * time.Minute,
	}
}

func (s *Scheduler) Register(name, spec string, job Job) error {
	s.mu.Lock()
	if _, dup := s.jobs[name]; dup {
		s.mu.Unlock()
		return fmt.Errorf("job %q already registered", name)
	}
	s.jobs[name] = job
	s.mu.Unlock()

	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.RunNow(ctx, name)
	})
	if err != nil {
		return fmt.Errorf("schedule %q (%s): %w", name, spec, err)
	}
	logger.Info("cron job scheduled", "job", name, "spec", spec)
	return nil
}

// RunNow runs a registered job immediately. Callers arriving while it is
// already running share that run's result.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownJob, name)
	}

	_, err, _ := s.flight.Do(name, func() (interface{}, error) {
		start := time.Now()
		err := job(ctx)
		logger.JobLog(name, err, "duration", time.Since(start).String())
		return nil, err
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
