package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const jobTimeout = 5 * time.Minute

// Job is a periodic cleanup that reports how many rows it touched.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) (int64, error)
}

// Scheduler runs housekeeping jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewScheduler registers jobs. An unparsable schedule is returned as an error.
func NewScheduler(log zerolog.Logger, jobs ...Job) (*Scheduler, error) {
	s := &Scheduler{
		log: log.With().Str("component", "scheduler").Logger(),
	}
	clog := cronLogger{log: s.log}
	s.cron = cron.New(cron.WithLogger(clog), cron.WithChain(cron.Recover(clog)))
	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.Schedule, s.wrap(job)); err != nil {
			return nil, err
		}
		s.log.Info().Str("job", job.Name).Str("schedule", job.Schedule).Msg("Job scheduled")
	}
	return s, nil
}

func (s *Scheduler) wrap(job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		n, err := job.Run(ctx)
		if err != nil {
			s.log.Error().Err(err).Str("job", job.Name).Msg("Job failed")
			return
		}
		s.log.Info().Str("job", job.Name).Int64("affected", n).Dur("took", time.Since(start)).Msg("Job finished")
	}
}

// cronLogger routes cron's own messages, including recovered job panics,
// through zerolog. Routine scheduling chatter is logged at debug.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs or ctx, whichever is first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("Scheduler stop timed out")
	}
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
