// internal/repository/cards.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vcard-reminder/internal/common/logger"
	"vcard-reminder/internal/models"
)

// ErrAlreadyNotified is returned by MarkNotified when the conditional update
// matched no row, meaning the card was already notified (or deleted).
var ErrAlreadyNotified = errors.New("card already notified")

const cardColumns = `id, name, due_at, contact_number, note, assigned_to,
	card_front_image, card_back_image, pinned, notified, created_at, updated_at`

// CardRepository provides access to appointment card records.
type CardRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewCardRepository(db *sql.DB, log logger.Logger) *CardRepository {
	return &CardRepository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "card-repository"}),
	}
}

// FindDueBetween returns unnotified cards whose due time falls in
// [start, end), ordered by due time for deterministic dispatch order.
func (r *CardRepository) FindDueBetween(ctx context.Context, start, end time.Time) ([]models.AppointmentCard, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM appointment_cards
		WHERE due_at >= $1 AND due_at < $2 AND notified = FALSE
		ORDER BY due_at, id`, cardColumns)

	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query due cards: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// FindAllUnnotified returns every card still awaiting its reminder,
// regardless of due date. Used by the per-record arming pass.
func (r *CardRepository) FindAllUnnotified(ctx context.Context) ([]models.AppointmentCard, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM appointment_cards
		WHERE notified = FALSE
		ORDER BY due_at, id`, cardColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query unnotified cards: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// MarkNotified flips the notified flag, guarded on it still being false so
// two overlapping dispatches of the same card cannot both observe a
// successful transition.
func (r *CardRepository) MarkNotified(ctx context.Context, cardID string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointment_cards
		SET notified = TRUE, updated_at = $2
		WHERE id = $1 AND notified = FALSE`, cardID, now)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notified rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyNotified
	}

	r.logger.Debug("card marked notified", map[string]interface{}{
		"cardId": cardID,
	})
	return nil
}

func scanCards(rows *sql.Rows) ([]models.AppointmentCard, error) {
	var cards []models.AppointmentCard
	for rows.Next() {
		var c models.AppointmentCard
		err := rows.Scan(
			&c.ID, &c.Name, &c.DueAt, &c.ContactNumber, &c.Note, &c.AssignedTo,
			&c.CardFrontImage, &c.CardBackImage, &c.Pinned, &c.Notified,
			&c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}
