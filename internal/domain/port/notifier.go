package port

import (
	"context"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/entity"
)

type NotificationSink interface {
	Notify(ctx context.Context, status entity.ConversionStatus) error
}

// ErrorReporter forwards terminal conversion failures to an error tracker.
type ErrorReporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}
