package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/classpulse/feedback-service/internal/models"
)

// SessionEventsTopic carries every session state change as a full-snapshot
// event. The hub is the in-process subscriber; an optional Kafka mirror
// republishes the same events for external consumers.
const SessionEventsTopic = "session.events"

const metadataSessionID = "session_id"

// Broker decouples the session state machine from the websocket layer: admin
// actions publish events here, the hub subscribes and fans out to sockets.
type Broker struct {
	channel *gochannel.GoChannel
	mirror  message.Publisher
	logger  *slog.Logger
}

func NewBroker(logger *slog.Logger) *Broker {
	wmLogger := watermill.NewSlogLogger(logger)
	return &Broker{
		channel: gochannel.NewGoChannel(gochannel.Config{}, wmLogger),
		logger:  logger,
	}
}

// EnableKafkaMirror republishes session events to Kafka on the same topic.
// Mirror failures are logged and never affect in-process delivery.
func (b *Broker) EnableKafkaMirror(brokers []string) error {
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, watermill.NewSlogLogger(b.logger))
	if err != nil {
		return fmt.Errorf("failed to create Kafka publisher: %w", err)
	}
	b.mirror = publisher
	return nil
}

// Publish emits one session event. Delivery to live connections is
// best-effort by design, so publish errors are returned only for the
// in-process channel, which fails solely when the broker is closed.
func (b *Broker) Publish(event models.SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataSessionID, strconv.FormatUint(uint64(event.SessionID), 10))

	if err := b.channel.Publish(SessionEventsTopic, msg); err != nil {
		return fmt.Errorf("failed to publish session event: %w", err)
	}

	if b.mirror != nil {
		mirrorMsg := message.NewMessage(watermill.NewUUID(), payload)
		mirrorMsg.Metadata.Set(metadataSessionID, msg.Metadata.Get(metadataSessionID))
		if err := b.mirror.Publish(SessionEventsTopic, mirrorMsg); err != nil {
			b.logger.Error("failed to mirror session event to Kafka", "error", err)
		}
	}

	return nil
}

// Subscribe returns the in-process event stream consumed by the hub.
func (b *Broker) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.channel.Subscribe(ctx, SessionEventsTopic)
}

func (b *Broker) Close() error {
	if b.mirror != nil {
		if err := b.mirror.Close(); err != nil {
			b.logger.Error("failed to close Kafka mirror", "error", err)
		}
	}
	return b.channel.Close()
}

// DecodeEvent unmarshals a broker message back into a session event,
// restoring the session id from message metadata.
func DecodeEvent(msg *message.Message) (models.SessionEvent, error) {
	var event models.SessionEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return event, fmt.Errorf("failed to decode session event: %w", err)
	}

	id, err := strconv.ParseUint(msg.Metadata.Get(metadataSessionID), 10, 64)
	if err != nil {
		return event, fmt.Errorf("failed to decode session id metadata: %w", err)
	}
	event.SessionID = uint(id)

	return event, nil
}
