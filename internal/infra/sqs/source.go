package sqs

import (
	"context"
	"fmt"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/entity"
	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"
)

// API is the subset of the SQS client the source needs.
type API interface {
	ReceiveMessage(ctx context.Context, params *awssqs.ReceiveMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *awssqs.DeleteMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error)
}

type SourceConfig struct {
	QueueURL          string
	MaxMessages       int32
	VisibilityTimeout int32
	WaitTimeSeconds   int32
}

type Source struct {
	client API
	cfg    SourceConfig
	logger *zap.Logger
}

func NewSource(client API, cfg SourceConfig, logger *zap.Logger) *Source {
	return &Source{client: client, cfg: cfg, logger: logger}
}

// NewClient builds an SQS client, pointing it at endpoint when one is given (LocalStack).
func NewClient(cfg aws.Config, endpoint string) *awssqs.Client {
	return awssqs.NewFromConfig(cfg, func(o *awssqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

func (s *Source) Receive(ctx context.Context) ([]entity.ConversionMessage, error) {
	s.logger.Debug("receiving messages", zap.String("queue_url", s.cfg.QueueURL))
	out, err := s.client.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
		QueueUrl:              aws.String(s.cfg.QueueURL),
		MaxNumberOfMessages:   s.cfg.MaxMessages,
		VisibilityTimeout:     s.cfg.VisibilityTimeout,
		WaitTimeSeconds:       s.cfg.WaitTimeSeconds,
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return nil, fmt.Errorf("receive messages: %w", err)
	}

	msgs := make([]entity.ConversionMessage, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, toConversionMessage(m))
	}
	return msgs, nil
}

func (s *Source) Delete(ctx context.Context, id, receiptToken string) error {
	_, err := s.client.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.cfg.QueueURL),
		ReceiptHandle: aws.String(receiptToken),
	})
	if err != nil {
		return fmt.Errorf("delete message %s: %w", id, err)
	}
	s.logger.Info("message deleted", zap.String("message_id", id))
	return nil
}

func toConversionMessage(m types.Message) entity.ConversionMessage {
	var body []byte
	if m.Body != nil {
		body = []byte(*m.Body)
	}
	return entity.ConversionMessage{
		ID:           aws.ToString(m.MessageId),
		ReceiptToken: aws.ToString(m.ReceiptHandle),
		Body:         body,
	}
}
