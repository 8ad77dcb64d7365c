package service

import (
	"context"
	"encoding/json"
	"time"

	"interview-assist-be/internal/pkg/logger"
	"interview-assist-be/pkg/events"
	pktNats "interview-assist-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// eventEnvelope is the wire form of a pipeline event on the internal bus
// and on the websocket.
type eventEnvelope struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"session_id"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

type IPublisherService interface {
	Publish(ctx context.Context, sessionID string, event events.Event)
}

// publisherService fans pipeline events onto the in-process bus (which
// feeds connected websocket observers) and mirrors them to NATS for any
// external consumers. Neither path may fail the caller.
type publisherService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	natsPub   *pktNats.Publisher
	logger    logger.ILogger
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel, natsPub *pktNats.Publisher, log logger.ILogger) IPublisherService {
	return &publisherService{
		pubSub:    pubSub,
		topicName: topicName,
		natsPub:   natsPub,
		logger:    log,
	}
}

func (s *publisherService) Publish(ctx context.Context, sessionID string, event events.Event) {
	envelope := eventEnvelope{
		Type:      event.EventType(),
		SessionID: sessionID,
		Payload:   event.Payload(),
		Timestamp: event.Timestamp(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		s.logger.Error("Publisher", "Failed to marshal event", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("session_id", sessionID)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		s.logger.Error("Publisher", "Failed to publish to internal bus", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}

	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, sessionID, event); err != nil {
			s.logger.Warn("Publisher", "NATS mirror failed", map[string]interface{}{
				"event_type": event.EventType(),
				"error":      err.Error(),
			})
		}
	}
}
