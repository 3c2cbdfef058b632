// internal/dispatch/retry.go
package dispatch

import (
	"context"
	"time"

	stderrors "vcard-reminder/internal/common/errors"
	"vcard-reminder/internal/common/logger"
	"vcard-reminder/internal/common/metrics"
	"vcard-reminder/internal/models"
	"vcard-reminder/internal/report"
)

// RetrySession owns the retry state of a single daily run. A fresh session is
// created per trigger invocation, so a retry chain still pending when the
// next daily tick fires cannot contaminate the new run's budget.
type RetrySession struct {
	resolver *Resolver
	engine   *Engine
	reporter report.Reporter
	// ceiling bounds total dispatch passes, the initial pass included.
	ceiling int
	backoff time.Duration
	passes  int
	logger  logger.Logger
	now     func() time.Time
}

func NewRetrySession(resolver *Resolver, engine *Engine, reporter report.Reporter, ceiling int, backoff time.Duration, log logger.Logger) *RetrySession {
	return &RetrySession{
		resolver: resolver,
		engine:   engine,
		reporter: reporter,
		ceiling:  ceiling,
		backoff:  backoff,
		logger:   log.WithFields(map[string]interface{}{"component": "retry-session"}),
		now:      time.Now,
	}
}

// Run executes the full dispatch pipeline for today: an initial pass over the
// due-set, then bounded retry passes over whatever remains due. Cards still
// unnotified at exhaustion stay pending until the next daily trigger
// re-evaluates them under a fresh date window.
func (s *RetrySession) Run(ctx context.Context) error {
	due := s.resolver.DueToday(ctx, s.now())
	if len(due) == 0 {
		s.logger.Info("no cards due today", nil)
		return nil
	}

	s.passes++
	if err := s.engine.ProcessBatch(ctx, due); err != nil {
		return err
	}

	for {
		remaining := s.resolver.DueToday(ctx, s.now())
		if len(remaining) == 0 {
			s.logger.Info("no cards remain due", map[string]interface{}{
				"passes": s.passes,
			})
			return nil
		}

		if s.passes >= s.ceiling {
			s.exhaust(ctx, remaining)
			return nil
		}

		s.logger.Warn("cards still due, retrying after backoff", map[string]interface{}{
			"remaining": len(remaining),
			"pass":      s.passes,
			"ceiling":   s.ceiling,
			"backoff":   s.backoff.String(),
		})
		if err := s.wait(ctx); err != nil {
			return err
		}

		// The calendar-day window may have rolled over during the backoff;
		// dispatch only what is still due now, never the pre-wait snapshot.
		remaining = s.resolver.DueToday(ctx, s.now())
		if len(remaining) == 0 {
			s.logger.Info("no cards remain due", map[string]interface{}{
				"passes": s.passes,
			})
			return nil
		}

		s.passes++
		metrics.RetryPasses.Inc()
		if err := s.engine.ProcessBatch(ctx, remaining); err != nil {
			return err
		}
	}
}

// exhaust logs the terminal warning for the day and notifies operators. The
// remaining cards are left unnotified; no further automatic attempt happens
// until tomorrow's trigger.
func (s *RetrySession) exhaust(ctx context.Context, remaining []models.AppointmentCard) {
	s.logger.Warn("retry ceiling reached with reminders pending", map[string]interface{}{
		"error":     stderrors.NewRetryExhaustedError(s.passes, len(remaining)),
		"remaining": len(remaining),
	})
	metrics.RetryExhaustions.Inc()
	s.reporter.ReportExhaustion(ctx, remaining, s.passes)
}

func (s *RetrySession) wait(ctx context.Context) error {
	timer := time.NewTimer(s.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
