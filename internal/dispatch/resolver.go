// internal/dispatch/resolver.go
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	stderrors "vcard-reminder/internal/common/errors"
	"vcard-reminder/internal/common/logger"
	"vcard-reminder/internal/models"
	"vcard-reminder/internal/repository"
)

// CardStore is the slice of the card repository the dispatch pipeline needs.
type CardStore interface {
	FindDueBetween(ctx context.Context, start, end time.Time) ([]models.AppointmentCard, error)
	FindAllUnnotified(ctx context.Context) ([]models.AppointmentCard, error)
	MarkNotified(ctx context.Context, cardID string, now time.Time) error
}

// StaffDirectory resolves an assignee to a contact phone number.
type StaffDirectory interface {
	FindByAssignee(ctx context.Context, username string) (*models.StaffDirectoryEntry, error)
}

// Resolver computes the due-set for a dispatch pass and resolves recipients.
type Resolver struct {
	cards        CardStore
	staff        StaffDirectory
	location     *time.Location
	defaultPhone string
	logger       logger.Logger
}

func NewResolver(cards CardStore, staff StaffDirectory, location *time.Location, defaultPhone string, log logger.Logger) *Resolver {
	return &Resolver{
		cards:        cards,
		staff:        staff,
		location:     location,
		defaultPhone: defaultPhone,
		logger:       log.WithFields(map[string]interface{}{"component": "due-set-resolver"}),
	}
}

// DayWindow returns [startOfDay, endOfDay) for the instant in the
// resolver's location.
func (r *Resolver) DayWindow(now time.Time) (time.Time, time.Time) {
	local := now.In(r.location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.location)
	return start, start.AddDate(0, 0, 1)
}

// DueToday returns unnotified cards whose due time falls within the current
// calendar day. A query failure yields an empty set; eligibility scanning
// never escalates.
func (r *Resolver) DueToday(ctx context.Context, now time.Time) []models.AppointmentCard {
	start, end := r.DayWindow(now)

	cards, err := r.cards.FindDueBetween(ctx, start, end)
	if err != nil {
		r.logger.Error("due-set query failed, treating as empty", map[string]interface{}{
			"windowStart": start.Format(time.RFC3339),
			"windowEnd":   end.Format(time.RFC3339),
			"error":       stderrors.NewCardQueryFailedError(err),
		})
		return nil
	}
	return cards
}

// AllUnnotified returns every unnotified card, used by the per-record arming
// pass. Unlike DueToday, a query failure here is surfaced so the arming pass
// can be retried by the next daily tick.
func (r *Resolver) AllUnnotified(ctx context.Context) ([]models.AppointmentCard, error) {
	cards, err := r.cards.FindAllUnnotified(ctx)
	if err != nil {
		return nil, fmt.Errorf("load unnotified cards: %w", err)
	}
	return cards, nil
}

// ResolveRecipient looks up the assignee's phone number. When the directory
// has no entry: with fallback enabled (per-record mode) the configured
// default number is returned so the reminder is not lost; without it the
// ErrStaffNotFound is surfaced and the caller skips the card.
func (r *Resolver) ResolveRecipient(ctx context.Context, card models.AppointmentCard, fallback bool) (string, error) {
	entry, err := r.staff.FindByAssignee(ctx, card.AssignedTo)
	if err == nil {
		return entry.Phone, nil
	}

	if errors.Is(err, repository.ErrStaffNotFound) && fallback {
		r.logger.Warn("assignee has no directory entry, using default number", map[string]interface{}{
			"cardId":     card.ID,
			"assignedTo": card.AssignedTo,
		})
		return r.defaultPhone, nil
	}
	return "", err
}
