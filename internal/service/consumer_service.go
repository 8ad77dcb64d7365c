package service

import (
	"context"

	"interview-assist-be/internal/pkg/logger"
	"interview-assist-be/internal/websocket"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the internal event bus and forwards each event to
// the websocket observers of its session.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	hub       *websocket.Hub
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	hub *websocket.Hub,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		hub:       hub,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	sessionID := msg.Metadata.Get("session_id")
	if sessionID == "" {
		cs.logger.Warn("Consumer", "Event without session_id metadata, dropping", nil)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.hub.SendToSession(sessionID, msg.Payload)
	msg.Ack()
}
