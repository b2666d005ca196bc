package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// TeaserDispatchPayload is one teaser job: notify one provider about one lead.
// Intake publishes one per matched provider; the consumer drives the dispatch
// usecase, which re-checks opt-out and quiet hours at delivery time.
type TeaserDispatchPayload struct {
	LeadID     string `json:"lead_id"`
	ProviderID string `json:"provider_id"`
}

type Producer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *Producer {
	return &Producer{Conn: conn, Ch: ch}
}

func (p *Producer) PublishTeaserDispatch(ctx context.Context, payload TeaserDispatchPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal teaser payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish teaser dispatch: %w", err)
	}
	return nil
}
