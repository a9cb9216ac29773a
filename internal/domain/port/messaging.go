package port

import (
	"context"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/entity"
)

// MessageSource delivers conversion work items and acknowledges them.
type MessageSource interface {
	Receive(ctx context.Context) ([]entity.ConversionMessage, error)
	Delete(ctx context.Context, id, receiptToken string) error
}
