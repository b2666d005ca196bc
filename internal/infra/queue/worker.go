package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// TeaserDispatcher is the consumer-side contract. deferred=true means the job
// could not run now (quiet hours) and should land on the DLQ for redelivery
// outside the window; the worker never self-schedules.
type TeaserDispatcher interface {
	Dispatch(ctx context.Context, payload TeaserDispatchPayload) (deferred bool, err error)
}

type Worker struct {
	Channel    *amqp.Channel
	Dispatcher TeaserDispatcher
	Logger     *zap.Logger
}

func NewWorker(ch *amqp.Channel, dispatcher TeaserDispatcher, logger *zap.Logger) *Worker {
	return &Worker{Channel: ch, Dispatcher: dispatcher, Logger: logger}
}

func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	w.Logger.Info("teaser dispatch worker running", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("teaser dispatch worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var payload TeaserDispatchPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		w.Logger.Error("malformed teaser job, dead-lettering", zap.Error(err))
		d.Nack(false, false)
		return
	}

	deferred, err := w.Dispatcher.Dispatch(ctx, payload)
	switch {
	case err != nil:
		w.Logger.Error("teaser dispatch failed, dead-lettering",
			zap.String("lead_id", payload.LeadID),
			zap.String("provider_id", payload.ProviderID),
			zap.Error(err))
		d.Nack(false, false)
	case deferred:
		// Quiet hours. Requeueing here would spin until the window ends,
		// so the job goes to the DLQ and ops shovel it back later.
		w.Logger.Info("teaser deferred for quiet hours, dead-lettering for redelivery",
			zap.String("lead_id", payload.LeadID),
			zap.String("provider_id", payload.ProviderID))
		d.Nack(false, false)
	default:
		d.Ack(false)
	}
}
