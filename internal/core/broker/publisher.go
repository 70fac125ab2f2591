package broker

import (
	"context"
	"fmt"
	"time"

	"payment-orchestrator/internal/core/domain/entity"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQPublisher struct {
	channel  *amqp.Channel
	exchange string
}

func NewRabbitMQPublisher(ch *amqp.Channel, exchange string) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		channel:  ch,
		exchange: exchange,
	}
}

// Publish routes the event by its type ("transaction.settled" and so on),
// letting consumers bind only to the outcomes they care about.
func (p *RabbitMQPublisher) Publish(ctx context.Context, event *entity.Outbox) error {
	err := p.channel.PublishWithContext(
		ctx,
		p.exchange,
		event.Type,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         []byte(event.Payload),
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Headers: amqp.Table{
				"event_type":   event.Type,
				"aggregate_id": event.ID,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}

	return nil
}
