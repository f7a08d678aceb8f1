package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"parking-lot-billing/internal/parking"
)

// Topic carries every ticket event.
const Topic = "parking.tickets"

const eventTypeKey = "event_type"

// Bus publishes ticket events on an in-process watermill channel.
type Bus struct {
	pubSub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

func NewBus(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, logger),
		logger: logger,
	}
}

func (b *Bus) Publish(ctx context.Context, event parking.TicketEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(eventTypeKey, event.Type)
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Metadata))
	msg.SetContext(ctx)

	return b.pubSub.Publish(Topic, msg)
}

// Subscribe delivers decoded events to handle until ctx is done. Messages
// that fail to decode are acked and dropped; handler errors nack the message.
func (b *Bus) Subscribe(ctx context.Context, handle func(context.Context, parking.TicketEvent) error) error {
	messages, err := b.pubSub.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			msgCtx := otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))

			var event parking.TicketEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				b.logger.Error("error unmarshalling ticket event", err, watermill.LogFields{
					"message_uuid": msg.UUID,
				})
				msg.Ack()
				continue
			}

			if err := handle(msgCtx, event); err != nil {
				b.logger.Error("error handling ticket event", err, watermill.LogFields{
					"message_uuid": msg.UUID,
					"event_type":   event.Type,
				})
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()
	return nil
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}
