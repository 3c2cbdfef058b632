// internal/dispatch/resolver_test.go
package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"vcard-reminder/internal/common/logger"
	"vcard-reminder/internal/models"
	"vcard-reminder/internal/repository"

	"github.com/stretchr/testify/assert"
)

func TestResolver_DayWindow(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	assert.NoError(t, err)

	resolver := NewResolver(&MockCardStore{}, &MockStaffDirectory{}, loc, "", logger.NewTestLogger(t))

	// 03:00 UTC on June 1st is 08:30 the same day in Kolkata.
	now := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	start, end := resolver.DayWindow(now)

	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, loc), end)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestResolver_DayWindow_LateEveningUTCRollsOver(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	assert.NoError(t, err)

	resolver := NewResolver(&MockCardStore{}, &MockStaffDirectory{}, loc, "", logger.NewTestLogger(t))

	// 20:00 UTC on June 1st is already June 2nd in Kolkata.
	now := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	start, _ := resolver.DayWindow(now)

	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, loc), start)
}

func TestResolver_DueToday_PassesWindowToStore(t *testing.T) {
	store := &MockCardStore{}
	var gotStart, gotEnd time.Time
	store.FindDueBetweenFunc = func(ctx context.Context, start, end time.Time) ([]models.AppointmentCard, error) {
		gotStart, gotEnd = start, end
		return []models.AppointmentCard{testCard("card-1", "Alice", "alice.staff", start.Add(9 * time.Hour))}, nil
	}

	resolver := NewResolver(store, &MockStaffDirectory{}, time.UTC, "", logger.NewTestLogger(t))
	now := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	cards := resolver.DueToday(context.Background(), now)

	assert.Len(t, cards, 1)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), gotStart)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), gotEnd)
}

func TestResolver_DueToday_QueryFailureYieldsEmptySet(t *testing.T) {
	store := &MockCardStore{}
	store.FindDueBetweenFunc = func(ctx context.Context, start, end time.Time) ([]models.AppointmentCard, error) {
		return nil, errors.New("connection refused")
	}

	resolver := NewResolver(store, &MockStaffDirectory{}, time.UTC, "", logger.NewTestLogger(t))
	cards := resolver.DueToday(context.Background(), time.Now())

	// A read failure during eligibility scanning is "nothing to do", never
	// an escalation.
	assert.Empty(t, cards)
}

func TestResolver_AllUnnotified_SurfacesError(t *testing.T) {
	store := &MockCardStore{}
	store.FindAllUnnotifiedFunc = func(ctx context.Context) ([]models.AppointmentCard, error) {
		return nil, errors.New("connection refused")
	}

	resolver := NewResolver(store, &MockStaffDirectory{}, time.UTC, "", logger.NewTestLogger(t))
	_, err := resolver.AllUnnotified(context.Background())

	assert.Error(t, err)
}

func TestResolver_ResolveRecipient(t *testing.T) {
	tests := []struct {
		name      string
		lookupErr error
		fallback  bool
		wantPhone string
		wantErr   bool
	}{
		{
			name:      "directory entry found",
			wantPhone: "+15550009999",
		},
		{
			name:      "missing entry without fallback",
			lookupErr: repository.ErrStaffNotFound,
			wantErr:   true,
		},
		{
			name:      "missing entry with fallback",
			lookupErr: repository.ErrStaffNotFound,
			fallback:  true,
			wantPhone: "+15550000000",
		},
		{
			name:      "lookup failure is not masked by fallback",
			lookupErr: errors.New("directory unavailable"),
			fallback:  true,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			staff := &MockStaffDirectory{}
			if tt.lookupErr != nil {
				staff.FindByAssigneeFunc = func(ctx context.Context, username string) (*models.StaffDirectoryEntry, error) {
					return nil, tt.lookupErr
				}
			}

			resolver := NewResolver(&MockCardStore{}, staff, time.UTC, "+15550000000", logger.NewTestLogger(t))
			card := testCard("card-1", "Alice", "alice.staff", time.Now())

			phone, err := resolver.ResolveRecipient(context.Background(), card, tt.fallback)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantPhone, phone)
		})
	}
}
