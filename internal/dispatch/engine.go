// internal/dispatch/engine.go
package dispatch

import (
	"context"
	"errors"
	"time"

	"vcard-reminder/internal/audit"
	stderrors "vcard-reminder/internal/common/errors"
	"vcard-reminder/internal/common/logger"
	"vcard-reminder/internal/common/metrics"
	"vcard-reminder/internal/common/observability"
	"vcard-reminder/internal/gateway"
	"vcard-reminder/internal/models"
	"vcard-reminder/internal/repository"
	"vcard-reminder/internal/templates"

	"github.com/google/uuid"
)

const (
	skipReasonStaffMissing = "staff_not_found"
	skipReasonTemplate     = "template_render_failed"

	failReasonGatewayRejected    = "gateway_rejected"
	failReasonGatewayUnreachable = "gateway_unreachable"
)

// Engine dispatches one reminder per due card: resolve the recipient, render
// the message, call the gateway, and on confirmed delivery flip the card's
// notified flag.
type Engine struct {
	resolver     *Resolver
	cards        CardStore
	gateway      gateway.Gateway
	formatter    *templates.Formatter
	recorder     audit.Recorder
	obs          *observability.Observability
	messageDelay time.Duration
	logger       logger.Logger
	now          func() time.Time
}

func NewEngine(
	resolver *Resolver,
	cards CardStore,
	gw gateway.Gateway,
	formatter *templates.Formatter,
	recorder audit.Recorder,
	obs *observability.Observability,
	messageDelay time.Duration,
	log logger.Logger,
) *Engine {
	return &Engine{
		resolver:     resolver,
		cards:        cards,
		gateway:      gw,
		formatter:    formatter,
		recorder:     recorder,
		obs:          obs,
		messageDelay: messageDelay,
		logger:       log.WithFields(map[string]interface{}{"component": "dispatch-engine"}),
		now:          time.Now,
	}
}

// ProcessBatch dispatches the given cards strictly sequentially, pausing the
// configured inter-message delay after each card. A card whose assignee has
// no directory entry is skipped and stays unnotified for the next pass.
// Returns early only on context cancellation.
func (e *Engine) ProcessBatch(ctx context.Context, cards []models.AppointmentCard) error {
	if len(cards) == 0 {
		return nil
	}

	start := e.now()
	e.logger.Info("starting dispatch pass", map[string]interface{}{
		"dueCards": len(cards),
	})

	for _, card := range cards {
		if err := ctx.Err(); err != nil {
			return err
		}

		phone, err := e.resolver.ResolveRecipient(ctx, card, false)
		if err != nil {
			reason := skipReasonStaffMissing
			logErr := err
			if errors.Is(err, repository.ErrStaffNotFound) {
				logErr = stderrors.NewRecipientNotFoundError(card.AssignedTo)
			} else {
				reason = "staff_lookup_failed"
			}
			e.logger.Warn("skipping card, recipient unresolved", map[string]interface{}{
				"cardId":     card.ID,
				"assignedTo": card.AssignedTo,
				"error":      logErr,
			})
			metrics.RemindersSkipped.WithLabelValues(reason).Inc()
			e.record(ctx, card, "", models.AttemptStatusSkipped, err.Error())
			continue
		}

		e.dispatch(ctx, card, phone)

		if err := e.pause(ctx); err != nil {
			return err
		}
	}

	metrics.DispatchPassDuration.Observe(e.now().Sub(start).Seconds())
	return nil
}

// DispatchOne handles a single card on the per-record path: a missing
// directory entry falls back to the default number, and a failed send is not
// retried since the card's one-shot timer has already fired.
func (e *Engine) DispatchOne(ctx context.Context, card models.AppointmentCard) {
	phone, err := e.resolver.ResolveRecipient(ctx, card, true)
	if err != nil {
		e.logger.Error("recipient resolution failed", map[string]interface{}{
			"cardId":     card.ID,
			"assignedTo": card.AssignedTo,
			"error":      err,
		})
		metrics.RemindersSkipped.WithLabelValues("staff_lookup_failed").Inc()
		e.record(ctx, card, "", models.AttemptStatusSkipped, err.Error())
		return
	}
	e.dispatch(ctx, card, phone)
}

// dispatch performs exactly one gateway attempt and, on success, at most one
// store mutation.
func (e *Engine) dispatch(ctx context.Context, card models.AppointmentCard, phone string) {
	message, err := e.formatter.FormatReminder(card.AssignedTo, card.DueAt, card.ContactNumber)
	if err != nil {
		e.logger.Error("message render failed", map[string]interface{}{
			"cardId": card.ID,
			"error":  err,
		})
		metrics.RemindersSkipped.WithLabelValues(skipReasonTemplate).Inc()
		e.record(ctx, card, phone, models.AttemptStatusSkipped, err.Error())
		return
	}

	sendStart := e.now()
	result, err := e.gateway.Send(ctx, phone, message, gateway.SourceVcard)
	e.obs.RecordDispatchDuration(ctx, e.now().Sub(sendStart), dispatchStatus(result, err))

	if err != nil {
		e.logger.Error("reminder delivery failed", map[string]interface{}{
			"cardId": card.ID,
			"phone":  phone,
			"error":  stderrors.NewGatewayUnreachableError(err),
		})
		metrics.RemindersFailed.WithLabelValues(e.gateway.Name(), failReasonGatewayUnreachable).Inc()
		e.obs.RecordDispatch(ctx, "failed")
		e.record(ctx, card, phone, models.AttemptStatusFailed, err.Error())
		return
	}
	if !result.Success {
		e.logger.Error("reminder rejected by provider", map[string]interface{}{
			"cardId": card.ID,
			"phone":  phone,
			"error":  stderrors.NewGatewayRejectedError(result.ProviderMessage),
		})
		metrics.RemindersFailed.WithLabelValues(e.gateway.Name(), failReasonGatewayRejected).Inc()
		e.obs.RecordDispatch(ctx, "failed")
		e.record(ctx, card, phone, models.AttemptStatusFailed, result.ProviderMessage)
		return
	}

	e.record(ctx, card, phone, models.AttemptStatusSent, "")
	metrics.RemindersSent.WithLabelValues(e.gateway.Name()).Inc()
	e.obs.RecordDispatch(ctx, "sent")

	// Delivery is confirmed; the flag flip is conditional on the card still
	// being unnotified, so a concurrent attempt can never double-transition.
	if err := e.cards.MarkNotified(ctx, card.ID, e.now()); err != nil {
		if errors.Is(err, repository.ErrAlreadyNotified) {
			e.logger.Warn("card was already notified", map[string]interface{}{
				"cardId": card.ID,
			})
			return
		}
		// Message went out but the store update failed: the card stays
		// unnotified and may be re-sent later. Accepted at-least-once risk.
		e.logger.Error("failed to mark card notified after delivery", map[string]interface{}{
			"cardId": card.ID,
			"error":  stderrors.NewCardUpdateFailedError(card.ID, err),
		})
		return
	}

	e.logger.Info("reminder delivered", map[string]interface{}{
		"cardId":     card.ID,
		"assignedTo": card.AssignedTo,
	})
}

func (e *Engine) pause(ctx context.Context) error {
	if e.messageDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(e.messageDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Engine) record(ctx context.Context, card models.AppointmentCard, phone, status, errMsg string) {
	e.recorder.Record(ctx, models.DispatchAttempt{
		ID:        uuid.New().String(),
		CardID:    card.ID,
		Phone:     phone,
		Provider:  e.gateway.Name(),
		Status:    status,
		Error:     errMsg,
		Timestamp: e.now().UTC(),
	})
}

func dispatchStatus(result *gateway.SendResult, err error) string {
	if err != nil || result == nil || !result.Success {
		return "failed"
	}
	return "sent"
}
