package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"interview-assist-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func TestPublisherServiceEnvelope(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "test_events")
	require.NoError(t, err)

	publisher := NewPublisherService("test_events", pubSub, nil, nopLogger{})

	event := events.New("transcript-ready", map[string]interface{}{
		"sequence": 3,
		"text":     "hello",
	})
	publisher.Publish(ctx, "session-1", event)

	select {
	case msg := <-messages:
		require.Equal(t, "session-1", msg.Metadata.Get("session_id"))

		var envelope eventEnvelope
		require.NoError(t, json.Unmarshal(msg.Payload, &envelope))
		require.Equal(t, "transcript-ready", envelope.Type)
		require.Equal(t, "session-1", envelope.SessionID)
		require.Equal(t, "hello", envelope.Payload["text"])
		require.False(t, envelope.Timestamp.IsZero())
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("no message on the bus")
	}
}

func TestPublisherServiceSurvivesNilNats(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	publisher := NewPublisherService("test_events", pubSub, nil, nopLogger{})

	// No subscriber and no NATS connection; publishing must not panic.
	require.NotPanics(t, func() {
		publisher.Publish(context.Background(), "session-1", events.New("pipeline-error", nil))
	})
}
