package port

import (
	"context"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/entity"
)

// ConversionRepository records each conversion attempt and its outcome.
type ConversionRepository interface {
	Create(ctx context.Context, c *entity.Conversion) error
	Update(ctx context.Context, c *entity.Conversion) error
}
