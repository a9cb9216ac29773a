package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/entity"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Source pulls conversion messages with basic.get so the poll loop keeps control of pacing.
// The delivery tag is the receipt token; Delete acknowledges it on the same channel.
// Messages that are never deleted stay unacknowledged until the channel closes, after which
// the broker redelivers them.
type Source struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queue     string
	batchSize int
	logger    *zap.Logger
}

type SourceConfig struct {
	URL       string
	Queue     string
	BatchSize int
}

func NewSource(cfg SourceConfig, logger *zap.Logger) (*Source, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 10
	}

	return &Source{
		conn:      conn,
		channel:   ch,
		queue:     cfg.Queue,
		batchSize: batch,
		logger:    logger,
	}, nil
}

func (s *Source) Receive(_ context.Context) ([]entity.ConversionMessage, error) {
	msgs := make([]entity.ConversionMessage, 0, s.batchSize)
	for len(msgs) < s.batchSize {
		d, ok, err := s.channel.Get(s.queue, false)
		if err != nil {
			if len(msgs) > 0 {
				s.logger.Warn("basic.get failed mid-batch, returning partial batch", zap.Error(err))
				return msgs, nil
			}
			return nil, fmt.Errorf("get from %s: %w", s.queue, err)
		}
		if !ok {
			break
		}
		msgs = append(msgs, entity.ConversionMessage{
			ID:           messageID(d),
			ReceiptToken: strconv.FormatUint(d.DeliveryTag, 10),
			Body:         d.Body,
		})
	}
	return msgs, nil
}

func (s *Source) Delete(_ context.Context, id, receiptToken string) error {
	tag, err := strconv.ParseUint(receiptToken, 10, 64)
	if err != nil {
		return fmt.Errorf("parse delivery tag %q: %w", receiptToken, err)
	}
	if err := s.channel.Ack(tag, false); err != nil {
		return fmt.Errorf("ack message %s: %w", id, err)
	}
	s.logger.Info("message acknowledged", zap.String("message_id", id))
	return nil
}

func (s *Source) Close() error {
	var errs []error
	if s.channel != nil {
		errs = append(errs, s.channel.Close())
	}
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
	}
	return errors.Join(errs...)
}

func messageID(d amqp.Delivery) string {
	if d.MessageId != "" {
		return d.MessageId
	}
	return "delivery-" + strconv.FormatUint(d.DeliveryTag, 10)
}
