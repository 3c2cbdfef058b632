// internal/repository/cards_test.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"vcard-reminder/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var cardRows = []string{
	"id", "name", "due_at", "contact_number", "note", "assigned_to",
	"card_front_image", "card_back_image", "pinned", "notified",
	"created_at", "updated_at",
}

func addCardRow(rows *sqlmock.Rows, id, name string, dueAt time.Time, assignedTo string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, name, dueAt, "555-0000", "", assignedTo, "", "", false, false, now, now)
}

func TestCardRepository_FindDueBetween(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rows := sqlmock.NewRows(cardRows)
	addCardRow(rows, "card-1", "Alice", start.Add(9*time.Hour), "alice.staff")
	addCardRow(rows, "card-2", "Bob", start.Add(14*time.Hour), "bob.staff")

	mock.ExpectQuery(`SELECT (.+) FROM appointment_cards WHERE due_at >= \$1 AND due_at < \$2 AND notified = FALSE ORDER BY due_at, id`).
		WithArgs(start, end).
		WillReturnRows(rows)

	repo := NewCardRepository(db, logger.NewTestLogger(t))
	cards, err := repo.FindDueBetween(context.Background(), start, end)

	assert.NoError(t, err)
	assert.Len(t, cards, 2)
	assert.Equal(t, "card-1", cards[0].ID)
	assert.Equal(t, "card-2", cards[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_FindDueBetween_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM appointment_cards`).
		WillReturnError(errors.New("connection refused"))

	repo := NewCardRepository(db, logger.NewTestLogger(t))
	cards, err := repo.FindDueBetween(context.Background(), time.Now(), time.Now().Add(time.Hour))

	assert.Error(t, err)
	assert.Nil(t, cards)
}

func TestCardRepository_FindAllUnnotified(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(cardRows)
	addCardRow(rows, "card-1", "Alice", time.Now().Add(time.Hour), "alice.staff")

	mock.ExpectQuery(`SELECT (.+) FROM appointment_cards WHERE notified = FALSE ORDER BY due_at, id`).
		WillReturnRows(rows)

	repo := NewCardRepository(db, logger.NewTestLogger(t))
	cards, err := repo.FindAllUnnotified(context.Background())

	assert.NoError(t, err)
	assert.Len(t, cards, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_MarkNotified(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(`UPDATE appointment_cards SET notified = TRUE, updated_at = \$2 WHERE id = \$1 AND notified = FALSE`).
		WithArgs("card-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewCardRepository(db, logger.NewTestLogger(t))
	err = repo.MarkNotified(context.Background(), "card-1", now)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_MarkNotified_AlreadyNotified(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	now := time.Now()
	// Conditional update matches no row when the flag already flipped.
	mock.ExpectExec(`UPDATE appointment_cards`).
		WithArgs("card-1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewCardRepository(db, logger.NewTestLogger(t))
	err = repo.MarkNotified(context.Background(), "card-1", now)

	assert.ErrorIs(t, err, ErrAlreadyNotified)
}

func TestCardRepository_MarkNotified_StoreError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE appointment_cards`).
		WillReturnError(sql.ErrConnDone)

	repo := NewCardRepository(db, logger.NewTestLogger(t))
	err = repo.MarkNotified(context.Background(), "card-1", time.Now())

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyNotified)
}
