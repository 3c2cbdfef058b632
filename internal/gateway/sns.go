// internal/gateway/sns.go
package gateway

import (
	"context"
	"fmt"

	"vcard-reminder/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSService is the subset of the SNS client the gateway needs; defined for
// mocking.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClient delivers reminders as plain SMS through AWS SNS. Used where the
// WhatsApp relay is not available.
type SNSClient struct {
	snsClient SNSService
	senderID  string
	logger    logger.Logger
}

func NewSNSClient(ctx context.Context, region, senderID string, log logger.Logger) (*SNSClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &SNSClient{
		snsClient: sns.NewFromConfig(awsCfg),
		senderID:  senderID,
		logger:    log.WithFields(map[string]interface{}{"gateway": "sns"}),
	}, nil
}

func (c *SNSClient) Name() string {
	return "sns"
}

func (c *SNSClient) Send(ctx context.Context, phoneNumber, message, source string) (*SendResult, error) {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(phoneNumber),
		Message:     aws.String(message),
	}
	if c.senderID != "" {
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(c.senderID),
			},
		}
	}

	if _, err := c.snsClient.Publish(ctx, input); err != nil {
		return nil, fmt.Errorf("sns publish: %w", err)
	}

	// SNS accepts or errors; there is no provider-level soft failure.
	return &SendResult{Success: true}, nil
}
