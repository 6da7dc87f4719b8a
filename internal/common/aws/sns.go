// internal/common/aws/sns.go
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSAPI is the subset of the SNS client used for alerts.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SMSSender texts a phone number directly, or publishes to a topic when no number is given.
type SMSSender struct {
	client   SNSAPI
	topicARN string
}

func NewSMSSender(client SNSAPI, topicARN string) *SMSSender {
	return &SMSSender{client: client, topicARN: topicARN}
}

// SendSMS returns the SNS message id.
func (s *SMSSender) SendSMS(ctx context.Context, phone, message string) (string, error) {
	input := &sns.PublishInput{Message: aws.String(message)}
	switch {
	case phone != "":
		input.PhoneNumber = aws.String(phone)
	case s.topicARN != "":
		input.TopicArn = aws.String(s.topicARN)
	default:
		return "", fmt.Errorf("no phone number or topic to publish to")
	}

	out, err := s.client.Publish(ctx, input)
	if err != nil {
		return "", fmt.Errorf("sns publish: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
