package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/port"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// API is the subset of the S3 client the store needs.
type API interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
}

// Uploader is satisfied by *manager.Uploader.
type Uploader interface {
	Upload(ctx context.Context, input *awss3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type Store struct {
	client   API
	uploader Uploader
	bucket   string
	logger   *zap.Logger
}

func NewStore(client *awss3.Client, bucket string, logger *zap.Logger) *Store {
	return newStore(client, manager.NewUploader(client), bucket, logger)
}

func newStore(client API, uploader Uploader, bucket string, logger *zap.Logger) *Store {
	return &Store{client: client, uploader: uploader, bucket: bucket, logger: logger}
}

func (s *Store) Get(ctx context.Context, key string) (*port.Object, error) {
	s.logger.Info("getting object", zap.String("bucket", s.bucket), zap.String("key", key))
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", key, err)
	}
	return &port.Object{
		Key:       key,
		Content:   out.Body,
		ETag:      aws.ToString(out.ETag),
		VersionID: aws.ToString(out.VersionId),
	}, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.logger.Info("uploading object",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)
	_, err := s.uploader.Upload(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload object %q: %w", key, err)
	}
	return nil
}

// Delete removes key, logging instead of returning any failure.
func (s *Store) Delete(ctx context.Context, key string) {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error("failed to delete object", zap.String("bucket", s.bucket), zap.String("key", key), zap.Error(err))
		return
	}
	s.logger.Info("object deleted", zap.String("bucket", s.bucket), zap.String("key", key))
}
