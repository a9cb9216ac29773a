package main

import (
	"context"
	"fmt"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/port"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/awsclient"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/config"
	miniostorage "github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/minio"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/notification"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/rabbitmq"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/s3"
	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/infra/sqs"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func awsOptions(cfg *config.Config) awsclient.Options {
	return awsclient.Options{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	}
}

func buildQueue(ctx context.Context, cfg *config.Config, log *zap.Logger) (port.MessageSource, func(), error) {
	switch cfg.QueueDriver {
	case config.QueueDriverRabbitMQ:
		src, err := rabbitmq.NewSource(rabbitmq.SourceConfig{
			URL:       cfg.RabbitMQURL,
			Queue:     cfg.RabbitMQQueue,
			BatchSize: int(cfg.QueueBatchSize),
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	default:
		awsCfg, err := awsclient.Load(ctx, awsOptions(cfg))
		if err != nil {
			return nil, nil, err
		}
		src := sqs.NewSource(sqs.NewClient(awsCfg, cfg.AWSEndpointURL), sqs.SourceConfig{
			QueueURL:          cfg.SQSQueueURL,
			MaxMessages:       cfg.QueueBatchSize,
			VisibilityTimeout: cfg.SQSVisibilityTimeout,
			WaitTimeSeconds:   cfg.SQSWaitTimeSeconds,
		}, log)
		return src, func() {}, nil
	}
}

func buildStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (port.ObjectStore, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMinIO:
		st, err := miniostorage.NewStorage(miniostorage.StorageConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.MinIOBucket,
		}, log)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure minio bucket: %w", err)
		}
		return st, nil
	default:
		awsCfg, err := awsclient.Load(ctx, awsOptions(cfg))
		if err != nil {
			return nil, err
		}
		return s3.NewStore(s3.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.AWSBucket, log), nil
	}
}

func buildNotifier(cfg *config.Config, log *zap.Logger) (port.NotificationSink, func(), error) {
	switch cfg.NotifierDriver {
	case config.NotifierDriverRabbitMQ:
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to rabbitmq for publisher: %w", err)
		}
		pub, err := rabbitmq.NewStatusPublisher(conn, cfg.RabbitMQExchange, cfg.RabbitMQStatusRoutingKey, log)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		return pub, func() {
			_ = pub.Close()
			_ = conn.Close()
		}, nil
	default:
		return notification.NewHTTPSink(notification.HTTPConfig{
			BaseURL:      cfg.HackatonAPIBaseURL,
			RetryMax:     cfg.NotifierRetryMax,
			RetryWaitMin: cfg.NotifierRetryWaitMin,
			RetryWaitMax: cfg.NotifierRetryWaitMax,
			Timeout:      cfg.NotifierTimeout,
		}, log), func() {}, nil
	}
}
