package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-docsearch-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	metadataEventType  = "event_type"
	metadataOccurredAt = "occurred_at"
)

// IPublisherService puts events on the in-process bus.
type IPublisherService interface {
	events.Publisher
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataEventType, event.EventType())
	msg.Metadata.Set(metadataOccurredAt, event.Timestamp().UTC().Format(time.RFC3339Nano))
	msg.SetContext(ctx)

	return ps.publisher.Publish(ps.topicName, msg)
}
