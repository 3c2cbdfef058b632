// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"sync"
	"time"

	"vcard-reminder/internal/common/config"
	"vcard-reminder/internal/common/logger"
	"vcard-reminder/internal/common/metrics"
	"vcard-reminder/internal/dispatch"
	"vcard-reminder/internal/models"
	"vcard-reminder/internal/report"

	"github.com/robfig/cron/v3"
)

// SessionFactory builds a fresh retry session per trigger invocation.
type SessionFactory func() *dispatch.RetrySession

// Scheduler owns the process-wide timer state. In batch mode a single daily
// cron entry runs the dispatch+retry pipeline over today's due cards. In
// per-record mode the daily entry instead re-arms one one-shot timer per
// unnotified card at its individual due instant.
type Scheduler struct {
	cfg        config.SchedulerConfig
	location   *time.Location
	resolver   *dispatch.Resolver
	engine     *dispatch.Engine
	newSession SessionFactory
	logger     logger.Logger

	cron *cron.Cron

	mu     sync.Mutex
	timers map[string]*time.Timer
	ctx    context.Context
	cancel context.CancelFunc
}

func New(
	cfg config.SchedulerConfig,
	location *time.Location,
	resolver *dispatch.Resolver,
	engine *dispatch.Engine,
	reporter report.Reporter,
	log logger.Logger,
) *Scheduler {
	s := &Scheduler{
		cfg:      cfg,
		location: location,
		resolver: resolver,
		engine:   engine,
		logger:   log.WithFields(map[string]interface{}{"component": "scheduler"}),
		timers:   map[string]*time.Timer{},
	}
	s.newSession = func() *dispatch.RetrySession {
		return dispatch.NewRetrySession(
			resolver,
			engine,
			reporter,
			cfg.Retry.MaxAttempts,
			time.Duration(cfg.Retry.Backoff)*time.Millisecond,
			log,
		)
	}
	return s
}

// Start registers the daily cron entry and, in per-record mode, runs an
// immediate arming pass so that timers exist before the first daily tick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.cron = cron.New(cron.WithLocation(s.location))
	var err error
	switch s.cfg.Mode {
	case config.SchedulerModePerRecord:
		_, err = s.cron.AddFunc(s.cfg.DailySpec, s.armPass)
	default:
		_, err = s.cron.AddFunc(s.cfg.DailySpec, s.runBatch)
	}
	if err != nil {
		return err
	}

	if s.cfg.Mode == config.SchedulerModePerRecord {
		s.armPass()
	}

	s.cron.Start()
	s.logger.Info("scheduler started", map[string]interface{}{
		"mode":      s.cfg.Mode,
		"dailySpec": s.cfg.DailySpec,
		"timezone":  s.location.String(),
	})
	return nil
}

// Stop halts the cron loop and stops every armed timer. Timers that already
// fired keep running to completion under the scheduler context, which Stop
// cancels.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	s.mu.Lock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	metrics.TimersArmed.Set(0)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("scheduler stopped", nil)
}

// RunBatchNow triggers one batch pipeline run outside the cron schedule.
func (s *Scheduler) RunBatchNow() {
	s.runBatch()
}

func (s *Scheduler) runBatch() {
	session := s.newSession()
	if err := session.Run(s.ctx); err != nil {
		s.logger.Error("dispatch pipeline aborted", map[string]interface{}{
			"error": err,
		})
	}
}

// armPass loads every unnotified card and arms a one-shot timer per card at
// its due instant. Cards already past due at arming time are skipped: stale
// reminders are not re-sent, and ones that became due while the process was
// down are dropped with a warning so operators can follow up.
func (s *Scheduler) armPass() {
	cards, err := s.resolver.AllUnnotified(s.ctx)
	if err != nil {
		s.logger.Error("arming pass failed", map[string]interface{}{
			"error": err,
		})
		return
	}

	now := time.Now()
	armed := 0
	for _, card := range cards {
		if s.Arm(card, now) {
			armed++
		}
	}
	s.logger.Info("arming pass complete", map[string]interface{}{
		"unnotified": len(cards),
		"armed":      armed,
	})
}

// Arm schedules a one-shot dispatch for the card. Re-arming an already-armed
// card replaces its timer. Returns false when the card's due time has
// passed.
func (s *Scheduler) Arm(card models.AppointmentCard, now time.Time) bool {
	if !card.DueAt.After(now) {
		s.logger.Warn("card due time already passed, not arming", map[string]interface{}{
			"cardId": card.ID,
			"dueAt":  card.DueAt.Format(time.RFC3339),
		})
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[card.ID]; ok {
		existing.Stop()
		delete(s.timers, card.ID)
		metrics.TimersArmed.Dec()
	}

	var timer *time.Timer
	timer = time.AfterFunc(card.DueAt.Sub(now), func() {
		s.fire(card, timer)
	})
	s.timers[card.ID] = timer
	metrics.TimersArmed.Inc()
	return true
}

// fire runs when a card's timer elapses. A timer that was replaced by a
// concurrent re-Arm may still fire once; comparing the handle against the map
// entry makes such a fire a no-op instead of dispatching twice and corrupting
// the armed-timer count.
func (s *Scheduler) fire(card models.AppointmentCard, timer *time.Timer) {
	s.mu.Lock()
	if current, ok := s.timers[card.ID]; !ok || current != timer {
		s.mu.Unlock()
		return
	}
	delete(s.timers, card.ID)
	metrics.TimersArmed.Dec()
	s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	s.engine.DispatchOne(s.ctx, card)
}
