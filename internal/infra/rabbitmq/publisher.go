package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/entity"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// StatusPublisher emits conversion status events to a topic exchange, for trackers that
// consume from the broker instead of exposing an HTTP endpoint.
type StatusPublisher struct {
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

func NewStatusPublisher(conn *amqp.Connection, exchange, routingKey string, logger *zap.Logger) (*StatusPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &StatusPublisher{channel: ch, exchange: exchange, routingKey: routingKey, logger: logger}, nil
}

func (sp *StatusPublisher) Notify(ctx context.Context, status entity.ConversionStatus) error {
	body, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	err = sp.channel.PublishWithContext(ctx,
		sp.exchange,
		sp.routingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Headers: amqp.Table{
				"x-conversion-status": string(status.Kind),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("publish status: %w", err)
	}

	sp.logger.Info("conversion status published",
		zap.String("status", string(status.Kind)),
		zap.String("user_id", status.UserID),
		zap.String("file_id", status.FileID),
	)
	return nil
}

func (sp *StatusPublisher) Close() error {
	return sp.channel.Close()
}
