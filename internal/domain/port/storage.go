package port

import (
	"context"
	"io"
)

type Object struct {
	Key       string
	Content   io.ReadCloser
	ETag      string
	VersionID string
}

// ObjectStore holds source videos and produced archives. Delete never reports failure.
type ObjectStore interface {
	Get(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string)
}
