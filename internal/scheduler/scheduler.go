// Package scheduler runs the policy job on a cron schedule and makes sure
// only one run happens at a time, across processes as well.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// JobID names the single scheduled job
const JobID = "BtManager"

// ErrRunInProgress is returned when another run holds the lock
var ErrRunInProgress = errors.New("another run is in progress")

// RunFunc performs one policy run
type RunFunc func(ctx context.Context) error

type Scheduler struct {
	schedule string
	cron     *cron.Cron
	entry    cron.EntryID
	run      RunFunc

	mu       sync.Mutex
	lockPath string
	lock     *flock.Flock

	log zerolog.Logger
}

// New creates a scheduler for run. lockPath is the file used to keep runs
// from separate processes apart.
func New(schedule, lockPath string, run RunFunc, logger zerolog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	logger = logger.With().Str("job", JobID).Logger()
	cronLog := cronLogger{log: logger}

	return &Scheduler{
		schedule: schedule,
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		run:      run,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		log:      logger,
	}, nil
}

// RunNow performs a run immediately. It returns ErrRunInProgress when
// another run, in this or another process, is still going.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if !s.mu.TryLock() {
		return ErrRunInProgress
	}
	defer s.mu.Unlock()

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", s.lockPath, err)
	}
	if !ok {
		return ErrRunInProgress
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.log.Warn().Err(err).Str("lock", s.lockPath).Msg("failed to release run lock")
		}
	}()

	return s.run(ctx)
}

// Start registers the job and blocks until ctx is cancelled. A run still in
// progress at that point is allowed to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.schedule, func() {
		s.log.Info().Msg("performing scheduled run")
		s.RunAndLog(ctx)
		s.logNext()
	})
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", JobID, err)
	}
	s.entry = id

	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("registered scheduled job")
	s.logNext()

	<-ctx.Done()

	s.log.Info().Msg("stopping scheduler")
	<-s.cron.Stop().Done()
	return nil
}

// Next returns the next scheduled run time, zero before Start
func (s *Scheduler) Next() time.Time {
	if s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// RunAndLog performs a run now and logs instead of returning errors
func (s *Scheduler) RunAndLog(ctx context.Context) {
	err := s.RunNow(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.log.Warn().Msg("previous run still in progress, skipping")
	case err != nil:
		s.log.Error().Err(err).Msg("run failed")
	}
}

func (s *Scheduler) logNext() {
	next := s.Next()
	if next.IsZero() {
		return
	}
	s.log.Info().
		Time("nextRun", next).
		Msgf("scheduling next run in %s", formatDuration(time.Until(next)))
}

// formatDuration converts a duration to a human-readable string
func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		if hours > 0 {
			return fmt.Sprintf("%d days %d hours", days, hours)
		}
		return fmt.Sprintf("%d days", days)
	}
	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%d hours %d minutes", hours, minutes)
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
