package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrConversionNotFound = errors.New("conversion not found")

type ConversionRepository struct {
	pool *pgxpool.Pool
}

func NewConversionRepository(pool *pgxpool.Pool) *ConversionRepository {
	return &ConversionRepository{pool: pool}
}

func (r *ConversionRepository) Create(ctx context.Context, c *entity.Conversion) error {
	query := `
		INSERT INTO conversions (
			id, message_id, user_id, file_id, file_name, source_key,
			archive_key, status, error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.MessageID, c.UserID, c.FileID, c.FileName, c.SourceKey,
		c.ArchiveKey, string(c.Status), c.ErrorMessage,
		c.CreatedAt, c.UpdatedAt, c.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert conversion: %w", err)
	}
	return nil
}

func (r *ConversionRepository) Update(ctx context.Context, c *entity.Conversion) error {
	query := `
		UPDATE conversions SET
			status=$2, archive_key=$3, error_message=$4, updated_at=$5, completed_at=$6
		WHERE id=$1`

	tag, err := r.pool.Exec(ctx, query,
		c.ID, string(c.Status), c.ArchiveKey, c.ErrorMessage, c.UpdatedAt, c.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update conversion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update conversion %s: %w", c.ID, ErrConversionNotFound)
	}
	return nil
}

func (r *ConversionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversion, error) {
	query := `
		SELECT id, message_id, user_id, file_id, file_name, source_key,
			archive_key, status, error_message, created_at, updated_at, completed_at
		FROM conversions WHERE id=$1`

	c := &entity.Conversion{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.MessageID, &c.UserID, &c.FileID, &c.FileName, &c.SourceKey,
		&c.ArchiveKey, &status, &c.ErrorMessage,
		&c.CreatedAt, &c.UpdatedAt, &c.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConversionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find conversion by id: %w", err)
	}
	c.Status = entity.ConversionState(status)
	return c, nil
}
