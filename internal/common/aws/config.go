// internal/common/aws/config.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// LoadConfig resolves credentials from the default chain for region.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
}

// NewSenders builds the SES and SNS alert senders from one AWS config.
func NewSenders(cfg aws.Config, from, topicARN string) (*EmailSender, *SMSSender) {
	return NewEmailSender(ses.NewFromConfig(cfg), from), NewSMSSender(sns.NewFromConfig(cfg), topicARN)
}
