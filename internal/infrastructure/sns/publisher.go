package sns

import (
	"context"
	"fmt"
	"strings"

	"github.com/alumni-registry/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Publisher publishes notifications to an SNS topic.
type Publisher interface {
	Publish(ctx context.Context, topicARN, subject, message string) error
}

type publisher struct {
	client *sns.Client
}

func NewPublisher(ctx context.Context, cfg *config.Config) (Publisher, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.SNSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	var clientOpts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return &publisher{client: sns.NewFromConfig(awsCfg, clientOpts...)}, nil
}

func (p *publisher) Publish(ctx context.Context, topicARN, subject, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Message:  aws.String(message),
	}
	// SNS rejects empty subjects.
	if subject != "" {
		input.Subject = aws.String(clampSubject(subject))
	}
	if _, err := p.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// maxSubjectLen is the SNS limit for email-protocol subjects.
const maxSubjectLen = 100

// clampSubject keeps the subject within SNS limits: one line, at most 100 characters.
func clampSubject(subject string) string {
	subject = strings.Join(strings.Fields(subject), " ")
	r := []rune(subject)
	if len(r) > maxSubjectLen {
		return string(r[:maxSubjectLen])
	}
	return subject
}
