// internal/report/email_test.go
package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"vcard-reminder/internal/common/logger"
	"vcard-reminder/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

func TestEmailReporter_ReportExhaustion(t *testing.T) {
	var sent *ses.SendEmailInput
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			sent = params
			return &ses.SendEmailOutput{}, nil
		},
	}

	reporter := NewEmailReporterWithClient(mockSES, "alerts@example.com", "ops@example.com", logger.NewTestLogger(t))

	remaining := []models.AppointmentCard{
		{ID: "card-1", Name: "Alice", DueAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), AssignedTo: "alice.staff"},
		{ID: "card-2", Name: "Bob", DueAt: time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC), AssignedTo: "bob.staff"},
	}
	reporter.ReportExhaustion(context.Background(), remaining, 3)

	assert.NotNil(t, sent)
	assert.Equal(t, "alerts@example.com", *sent.Source)
	assert.Equal(t, []string{"ops@example.com"}, sent.Destination.ToAddresses)
	assert.Contains(t, *sent.Message.Subject.Data, "2 appointment(s)")
	assert.Contains(t, *sent.Message.Subject.Data, "3 retries")

	body := *sent.Message.Body.Text.Data
	assert.Contains(t, body, "card-1")
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "alice.staff")
	assert.Contains(t, body, "card-2")
}

func TestEmailReporter_ReportExhaustion_SendFailureIsSwallowed(t *testing.T) {
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("ses unavailable")
		},
	}

	reporter := NewEmailReporterWithClient(mockSES, "alerts@example.com", "ops@example.com", logger.NewTestLogger(t))

	// Reporting is best-effort and never escalates.
	reporter.ReportExhaustion(context.Background(), []models.AppointmentCard{{ID: "card-1"}}, 3)
}

func TestNopReporter(t *testing.T) {
	NopReporter{}.ReportExhaustion(context.Background(), nil, 0)
}
