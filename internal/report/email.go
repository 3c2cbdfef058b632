// internal/report/email.go
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vcard-reminder/internal/common/logger"
	"vcard-reminder/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Reporter notifies operators when a retry session exhausts its ceiling
// with cards still undelivered.
type Reporter interface {
	ReportExhaustion(ctx context.Context, remaining []models.AppointmentCard, attempts int)
}

// EmailReporter sends the exhaustion summary over SES.
type EmailReporter struct {
	client    SESService
	fromEmail string
	toEmail   string
	logger    logger.Logger
}

func NewEmailReporter(ctx context.Context, region, fromEmail, toEmail string, log logger.Logger) (*EmailReporter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &EmailReporter{
		client:    ses.NewFromConfig(awsCfg),
		fromEmail: fromEmail,
		toEmail:   toEmail,
		logger:    log.WithFields(map[string]interface{}{"component": "exhaustion-reporter"}),
	}, nil
}

func NewEmailReporterWithClient(client SESService, fromEmail, toEmail string, log logger.Logger) *EmailReporter {
	return &EmailReporter{
		client:    client,
		fromEmail: fromEmail,
		toEmail:   toEmail,
		logger:    log.WithFields(map[string]interface{}{"component": "exhaustion-reporter"}),
	}
}

func (r *EmailReporter) ReportExhaustion(ctx context.Context, remaining []models.AppointmentCard, attempts int) {
	subject := fmt.Sprintf("Reminder dispatch: %d appointment(s) undelivered after %d retries", len(remaining), attempts)

	var b strings.Builder
	fmt.Fprintf(&b, "The following appointment reminders could not be delivered after %d retry attempts:\n\n", attempts)
	for _, card := range remaining {
		fmt.Fprintf(&b, "- %s (card %s, due %s, assigned to %s)\n",
			card.Name, card.ID, card.DueAt.UTC().Format(time.RFC3339), card.AssignedTo)
	}
	b.WriteString("\nManual follow-up is required.\n")
	body := b.String()

	_, err := r.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{r.toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(r.fromEmail),
	})
	if err != nil {
		r.logger.Error("exhaustion report email failed", map[string]interface{}{
			"error":     err,
			"remaining": len(remaining),
		})
		return
	}

	r.logger.Info("exhaustion report sent", map[string]interface{}{
		"remaining": len(remaining),
		"attempts":  attempts,
	})
}

// NopReporter is used when email reporting is disabled.
type NopReporter struct{}

func (NopReporter) ReportExhaustion(context.Context, []models.AppointmentCard, int) {}
