package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/blockprotocol/hub-api/internal/config"
	"github.com/blockprotocol/hub-api/internal/domain"
)

// EventTypeVersionPublished is the event_type attribute of type events.
const EventTypeVersionPublished = "type.version.published"

// EventPublisher announces new type versions to subscribers.
type EventPublisher interface {
	PublishTypeVersion(ctx context.Context, event domain.TypeVersionPublished) error
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

// NewPublisher returns an SNS-backed publisher, or a no-op one when no topic
// is configured.
func NewPublisher(awsCfg aws.Config, cfg *config.Config) EventPublisher {
	if cfg.TypeEventsTopicARN == "" {
		return noopPublisher{}
	}
	var opts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		opts = append(opts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return &publisher{client: sns.NewFromConfig(awsCfg, opts...), topicARN: cfg.TypeEventsTopicARN}
}

func (p *publisher) PublishTypeVersion(ctx context.Context, event domain.TypeVersionPublished) error {
	input, err := publishInput(p.topicARN, event)
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, input)
	return err
}

func publishInput(topicARN string, event domain.TypeVersionPublished) (*sns.PublishInput, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(EventTypeVersionPublished)},
			"kind":       {DataType: aws.String("String"), StringValue: aws.String(string(event.Kind))},
		},
	}, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishTypeVersion(context.Context, domain.TypeVersionPublished) error {
	return nil
}
