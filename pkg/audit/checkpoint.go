package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically re-verifies the whole chain so tampering is noticed
// even when nobody calls the verify endpoint.
type Sweeper struct {
	log      *Log
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewSweeper creates an integrity sweeper. The schedule uses standard cron
// syntax; an empty schedule defaults to hourly.
func NewSweeper(log *Log, schedule string, timeout time.Duration, logger *slog.Logger) *Sweeper {
	if schedule == "" {
		schedule = "@hourly"
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		log:      log,
		cron:     cron.New(),
		schedule: schedule,
		timeout:  timeout,
		logger:   logger.With("component", "audit.sweeper"),
	}
}

// Start schedules the sweep and begins running it.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("failed to schedule integrity sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info("integrity sweep scheduled", "schedule", s.schedule)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	report, err := s.log.VerifyIntegrity(ctx)
	if err != nil {
		s.logger.Error("integrity sweep failed", "error", err)
		return
	}

	if report.Valid {
		s.logger.Info("integrity sweep passed", "duration", time.Since(started))
	} else {
		s.logger.Error("integrity sweep detected tampering",
			"error_count", len(report.Errors),
			"errors", report.Errors,
		)
	}
}
